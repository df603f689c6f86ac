package model

import (
	"github.com/google/uuid"
)

// PermissionCode is a capability token a role may carry.
type PermissionCode string

const (
	PermTaskCreate PermissionCode = "TASK_CREATE"
	PermTaskEdit   PermissionCode = "TASK_EDIT"
	PermTaskDelete PermissionCode = "TASK_DELETE"
	PermTaskView   PermissionCode = "TASK_VIEW"
)

// AllPermissionCodes lists the closed set of permission codes.
func AllPermissionCodes() []PermissionCode {
	return []PermissionCode{PermTaskCreate, PermTaskEdit, PermTaskDelete, PermTaskView}
}

func (c PermissionCode) Valid() bool {
	switch c {
	case PermTaskCreate, PermTaskEdit, PermTaskDelete, PermTaskView:
		return true
	}
	return false
}

// Role groups users; Code is optional so a role can exist purely for grouping.
type Role struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name        string          `gorm:"uniqueIndex;not null"`
	Description string
	Code        *PermissionCode `gorm:"type:varchar(20)"`
	IsActive    bool            `gorm:"not null;default:true"`
}

// UserRole links a user to a role. The membership carries its own active
// flag: an effective permission requires both the membership and the role
// to be active.
type UserRole struct {
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoleID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	IsActive bool      `gorm:"not null;default:true"`

	User User `gorm:"foreignKey:UserID"`
	Role Role `gorm:"foreignKey:RoleID"`
}
