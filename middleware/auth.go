package middleware

import (
	"lexdesk/db"
	"lexdesk/models"
	"lexdesk/services"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	// ContextKeyUser is the context key for the authenticated user
	ContextKeyUser = "user"
	// ContextKeyFirm is the context key for the user's firm
	ContextKeyFirm = "firm"
	// ContextKeySession is the context key for the session
	ContextKeySession = "session"
)

// extractBearerToken pulls the token out of the Authorization header
func extractBearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth is middleware that requires a valid bearer token
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractBearerToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing or malformed authorization header")
			}

			// Validate session
			session, err := services.ValidateSession(db.DB, token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			// Check if user is active
			if !session.User.IsActive {
				return echo.NewHTTPError(http.StatusUnauthorized, "Account is deactivated")
			}

			// Store user, firm, and session in context
			c.Set(ContextKeyUser, &session.User)
			c.Set(ContextKeyFirm, session.Firm)
			c.Set(ContextKeySession, session)

			return next(c)
		}
	}
}

// RequireRole is middleware that requires specific roles
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetCurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			// Check if user has one of the required roles
			hasRole := false
			for _, role := range roles {
				if user.Role == role {
					hasRole = true
					break
				}
			}

			if !hasRole {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}

			return next(c)
		}
	}
}

// RequirePermission is middleware that requires a minimum permission level.
// Team-management mutations are gated on "full access" here, server side,
// regardless of what the frontend chooses to render.
func RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetCurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			if user.Permissions != permission {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}

			return next(c)
		}
	}
}

// RequireFirm ensures the user has a firm assigned
func RequireFirm() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetCurrentUser(c)

			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			if !user.HasFirm() {
				return echo.NewHTTPError(http.StatusForbidden, "No law firm associated with this account")
			}

			return next(c)
		}
	}
}

// GetCurrentUser retrieves the current user from context
func GetCurrentUser(c echo.Context) *models.User {
	user, ok := c.Get(ContextKeyUser).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetCurrentFirm retrieves the current firm from context
func GetCurrentFirm(c echo.Context) *models.Firm {
	firm, ok := c.Get(ContextKeyFirm).(*models.Firm)
	if !ok {
		return nil
	}
	return firm
}

// GetFirmScopedQuery returns a GORM query scoped to the current user's firm.
// Every list and lookup goes through this; rows from other firms are simply
// invisible (404 on direct lookup, never 403).
func GetFirmScopedQuery(c echo.Context, db *gorm.DB) *gorm.DB {
	currentUser := GetCurrentUser(c)
	if currentUser == nil || currentUser.FirmID == nil {
		// Return query that matches nothing
		return db.Where("1 = 0")
	}

	return db.Where("firm_id = ?", *currentUser.FirmID)
}

// CanAccessUser checks if the current user can access another user's data
func CanAccessUser(c echo.Context, targetUserID string) bool {
	currentUser := GetCurrentUser(c)
	if currentUser == nil {
		return false
	}

	// Admins can access all users in their firm
	if currentUser.Role == models.RoleAdmin {
		return true
	}

	// Users can always access their own data
	return currentUser.ID == targetUserID
}

// CanModifyUser checks if the current user can modify another user's data
func CanModifyUser(c echo.Context, targetUserID string) bool {
	currentUser := GetCurrentUser(c)
	if currentUser == nil {
		return false
	}

	// Only admins can modify other users
	if currentUser.Role == models.RoleAdmin {
		return true
	}

	// Users can modify their own profile
	return currentUser.ID == targetUserID
}
