package handler

import (
	"errors"
	"net/http"

	"taskhub/internal/access"
	"taskhub/internal/middleware"
	"taskhub/internal/model"

	"github.com/gin-gonic/gin"
)

// currentPrincipal reads the authenticated user and resolved permission codes
// the auth middleware stored in the request context.
func currentPrincipal(c *gin.Context) (*model.User, []model.PermissionCode, bool) {
	value, exists := c.Get(middleware.UserKey)
	if !exists {
		return nil, nil, false
	}
	user, ok := value.(*model.User)
	if !ok {
		return nil, nil, false
	}

	var permissions []model.PermissionCode
	if raw, exists := c.Get(middleware.PermissionsKey); exists {
		permissions, _ = raw.([]model.PermissionCode)
	}
	return user, permissions, true
}

// requirePermission runs the access gate as the first step of an operation.
// On denial it writes the response and returns false.
func requirePermission(c *gin.Context, required model.PermissionCode) (*model.User, bool) {
	user, permissions, _ := currentPrincipal(c)

	err := access.Check(user, permissions, required)
	switch {
	case err == nil:
		return user, true
	case errors.Is(err, access.ErrNoPrincipal), errors.Is(err, access.ErrInactivePrincipal):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	}
	return nil, false
}
