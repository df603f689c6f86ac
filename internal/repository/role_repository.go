package repository

import (
	"context"
	"errors"

	"taskhub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

type RoleRepositoryInterface interface {
	GetByCodes(ctx context.Context, codes []model.PermissionCode) ([]model.Role, error)
	AssignRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error
	SeedDefaults(ctx context.Context) error
}

var _ RoleRepositoryInterface = (*RoleRepository)(nil)

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetByCodes(ctx context.Context, codes []model.PermissionCode) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.WithContext(ctx).Where("code IN ?", codes).Find(&roles).Error
	return roles, err
}

// AssignRoles links the user to the given roles with active memberships.
// Existing links are left as they are.
func (r *RoleRepository) AssignRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error {
	if len(roleIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, roleID := range roleIDs {
			var existing model.UserRole
			err := tx.Where("user_id = ? AND role_id = ?", userID, roleID).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			link := model.UserRole{UserID: userID, RoleID: roleID, IsActive: true}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedDefaults creates one active role per permission code if missing.
func (r *RoleRepository) SeedDefaults(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, code := range model.AllPermissionCodes() {
			code := code
			var existing model.Role
			err := tx.Where("name = ?", string(code)).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			role := model.Role{
				Name:        string(code),
				Description: string(code),
				Code:        &code,
				IsActive:    true,
			}
			if err := tx.Create(&role).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
