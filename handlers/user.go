package handlers

import (
	"lexdesk/config"
	"lexdesk/db"
	"lexdesk/middleware"
	"lexdesk/models"
	"lexdesk/services"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// GetUsers returns the team members in the current user's firm. Client
// accounts are only included when explicitly requested with ?role=client.
// Staff only; client accounts have no business with the roster.
func GetUsers(c echo.Context) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil || currentUser.Role == models.RoleClient {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}

	var users []models.User

	// Scope query to current user's firm
	query := middleware.GetFirmScopedQuery(c, db.DB)

	role := c.QueryParam("role")
	if role != "" {
		if !models.IsValidUserRole(role) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid role filter"})
		}
		query = query.Where("role = ?", role)
	} else {
		query = query.Where("role <> ?", models.RoleClient)
	}

	if err := query.Order("name ASC").Find(&users).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to fetch users",
		})
	}

	return c.JSON(http.StatusOK, users)
}

// GetUser returns a single user by ID
func GetUser(c echo.Context) error {
	id := c.Param("id")
	var user models.User

	// Scope query to current user's firm
	query := middleware.GetFirmScopedQuery(c, db.DB)

	if err := query.First(&user, "id = ?", id).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "User not found",
		})
	}

	// Check authorization (admins can view all, others only themselves)
	if !middleware.CanAccessUser(c, user.ID) {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}

	return c.JSON(http.StatusOK, user)
}

// CreateUserRequest is the payload for admin-invoked registration of
// associates and clients
type CreateUserRequest struct {
	Name        string `json:"full_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
	Permissions string `json:"permissions"`
}

// CreateUser creates a new user in the caller's firm (admin, full access only)
func CreateUser(c echo.Context) error {
	currentUser := middleware.GetCurrentUser(c)

	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	// Validate required fields
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Full name, email, and password are required",
		})
	}

	// Validate role
	if req.Role == "" {
		req.Role = models.RoleAssociate
	} else if !models.IsValidUserRole(req.Role) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid role. Must be one of: admin, associate, client",
		})
	}

	// Validate permissions
	if req.Permissions == "" {
		req.Permissions = models.PermissionLimited
	} else if !models.IsValidPermission(req.Permissions) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid permissions. Must be one of: full access, limited access, no access",
		})
	}

	// Reject duplicate email
	var existing models.User
	if err := db.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return c.JSON(http.StatusConflict, map[string]string{
			"error": "An account with this email already exists",
		})
	}

	// Hash password
	hashedPassword, err := services.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to hash password",
		})
	}

	user := &models.User{
		Name:        req.Name,
		Email:       req.Email,
		Password:    hashedPassword,
		Phone:       req.Phone,
		Role:        req.Role,
		Permissions: req.Permissions,
		IsActive:    true,
		// Force user into the same firm as creator
		FirmID: currentUser.FirmID,
	}

	if err := db.DB.Create(user).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to create user",
		})
	}

	// Log security event
	services.LogSecurityEvent("USER_CREATED", currentUser.ID, "Created user: "+user.ID)

	// Send welcome email asynchronously (non-blocking)
	cfg := c.Get("config").(*config.Config)
	firmName := ""
	if firm := middleware.GetCurrentFirm(c); firm != nil {
		firmName = firm.Name
	}
	email := services.BuildWelcomeEmail(user.Email, user.Name, firmName, cfg.AppURL)
	services.SendEmailAsync(cfg, email)

	return c.JSON(http.StatusCreated, user)
}

// UpdateUserRequest is a partial-merge update payload; nil fields keep
// their previous values
type UpdateUserRequest struct {
	Name        *string `json:"full_name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Password    *string `json:"password"`
	Role        *string `json:"role"`
	Permissions *string `json:"permissions"`
	IsActive    *bool   `json:"is_active"`
}

// UpdateUser updates an existing user. Profile fields may be edited by the
// user themselves or an admin; role, permissions and the active flag only by
// an admin.
func UpdateUser(c echo.Context) error {
	id := c.Param("id")
	currentUser := middleware.GetCurrentUser(c)

	// Scope query to current user's firm
	query := middleware.GetFirmScopedQuery(c, db.DB)

	var user models.User
	if err := query.First(&user, "id = ?", id).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "User not found",
		})
	}

	if !middleware.CanModifyUser(c, user.ID) {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	if req.Name != nil && *req.Name != "" {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Email != nil && *req.Email != "" {
		email := strings.TrimSpace(strings.ToLower(*req.Email))
		var existing models.User
		if err := db.DB.Where("email = ? AND id <> ?", email, user.ID).First(&existing).Error; err == nil {
			return c.JSON(http.StatusConflict, map[string]string{
				"error": "An account with this email already exists",
			})
		}
		user.Email = email
	}
	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < 8 {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "Password must be at least 8 characters long",
			})
		}
		hashed, err := services.HashPassword(*req.Password)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "Failed to hash password",
			})
		}
		user.Password = hashed
		// Revoke existing sessions on password change
		services.DeleteAllUserSessions(db.DB, user.ID)
	}

	// Role, permissions and active flag are admin-only
	if currentUser.Role == models.RoleAdmin {
		if req.Role != nil {
			if !models.IsValidUserRole(*req.Role) {
				return c.JSON(http.StatusBadRequest, map[string]string{
					"error": "Invalid role. Must be one of: admin, associate, client",
				})
			}
			user.Role = *req.Role
		}
		if req.Permissions != nil {
			if !models.IsValidPermission(*req.Permissions) {
				return c.JSON(http.StatusBadRequest, map[string]string{
					"error": "Invalid permissions. Must be one of: full access, limited access, no access",
				})
			}
			user.Permissions = *req.Permissions
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
			if !user.IsActive {
				// Soft-disable also revokes sessions
				services.DeleteAllUserSessions(db.DB, user.ID)
			}
		}
	} else if req.Role != nil || req.Permissions != nil || req.IsActive != nil {
		return echo.NewHTTPError(http.StatusForbidden, "Only admins can change role, permissions, or active status")
	}

	if err := db.DB.Save(&user).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to update user",
		})
	}

	return c.JSON(http.StatusOK, user)
}

// DeleteUser removes a user account (admin, full access only). The usual
// flow deactivates accounts instead; this is the hard path.
func DeleteUser(c echo.Context) error {
	id := c.Param("id")
	currentUser := middleware.GetCurrentUser(c)

	if id == currentUser.ID {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "You cannot delete your own account",
		})
	}

	query := middleware.GetFirmScopedQuery(c, db.DB)

	var user models.User
	if err := query.First(&user, "id = ?", id).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "User not found",
		})
	}

	services.DeleteAllUserSessions(db.DB, user.ID)

	if err := db.DB.Delete(&user).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to delete user",
		})
	}

	services.LogSecurityEvent("USER_DELETED", currentUser.ID, "Deleted user: "+user.ID)

	return c.NoContent(http.StatusNoContent)
}
