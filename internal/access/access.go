package access

import (
	"errors"

	"taskhub/internal/model"
)

var (
	// ErrNoPrincipal is returned when no authenticated principal is present
	ErrNoPrincipal = errors.New("no authenticated principal")

	// ErrInactivePrincipal is returned when the principal is deactivated
	ErrInactivePrincipal = errors.New("user is not active")

	// ErrPermissionDenied is returned when the principal's resolved
	// permission set lacks the required code
	ErrPermissionDenied = errors.New("user is not authorized to do this action")
)

// Check gates an operation on the principal holding the required permission
// code. It must run before any state mutation or sensitive read.
func Check(principal *model.User, permissions []model.PermissionCode, required model.PermissionCode) error {
	if principal == nil {
		return ErrNoPrincipal
	}
	if !principal.IsActive {
		return ErrInactivePrincipal
	}
	for _, code := range permissions {
		if code == required {
			return nil
		}
	}
	return ErrPermissionDenied
}
