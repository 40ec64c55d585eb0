package service

import (
	"github.com/noah-isme/campus-studyhub-api/internal/models"
	appErrors "github.com/noah-isme/campus-studyhub-api/pkg/errors"
)

var (
	readerRoles = []models.UserRole{models.RoleStudent, models.RoleAdmin}
	writerRoles = []models.UserRole{models.RoleAdmin}
)

// RequireRole guards a service entry point. A missing principal is Unauthorized; a principal
// whose role is not listed is Forbidden.
func RequireRole(principal *models.JWTClaims, roles ...models.UserRole) error {
	if principal == nil || principal.UserID == 0 || principal.Role == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	for _, role := range roles {
		if principal.Role == role {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "insufficient permissions")
}
