package handlers

import (
	"lexdesk/config"
	"lexdesk/db"
	"lexdesk/middleware"
	"lexdesk/models"
	"lexdesk/services"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

func init() {
	// Generate a real dummy hash at startup to ensure consistent timing
	hash, _ := services.HashPassword("dummy_password_for_timing_mitigation")
	if hash != "" {
		globalDummyHash = hash
	}
}

// Package level variable to hold the dummy hash used for timing mitigation
var globalDummyHash = "$2a$10$X7.G.t8./.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t" // Fallback

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token and the authenticated user
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// LoginHandler authenticates a user and issues a bearer token
func LoginHandler(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Email and password are required"})
	}

	// Find user by email with firm preloaded
	var user models.User
	err := db.DB.Preload("Firm").Where("email = ?", email).First(&user).Error
	if err != nil {
		// Timing attack mitigation: always run a bcrypt compare
		services.VerifyPassword(globalDummyHash, req.Password)
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
	}

	// Account lockout check
	if user.LockoutUntil != nil && time.Now().Before(*user.LockoutUntil) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Account is locked. Try again later."})
	}

	// Verify password
	if !services.VerifyPassword(user.Password, req.Password) {
		// Increment failed login attempts
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= 5 {
			lockoutTime := time.Now().Add(15 * time.Minute)
			user.LockoutUntil = &lockoutTime
			user.FailedLoginAttempts = 0
		}
		db.DB.Save(&user)
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
	}

	// Reset failed attempts on success
	if user.FailedLoginAttempts > 0 || user.LockoutUntil != nil {
		user.FailedLoginAttempts = 0
		user.LockoutUntil = nil
		db.DB.Save(&user)
	}

	// Check if user is active
	if !user.IsActive {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Your account has been deactivated"})
	}

	ipAddress := c.RealIP()
	userAgent := c.Request().UserAgent()

	// Create session (empty firm ID allowed for platform admins)
	firmID := ""
	if user.FirmID != nil {
		firmID = *user.FirmID
	}
	session, err := services.CreateSession(db.DB, user.ID, firmID, ipAddress, userAgent)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session")
	}

	// Audit logging (Login)
	auditCtx := services.AuditContext{
		UserID:    user.ID,
		UserName:  user.Name,
		UserRole:  user.Role,
		FirmID:    firmID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	if user.Firm != nil {
		auditCtx.FirmName = user.Firm.Name
	}
	services.LogAuditEvent(db.DB, auditCtx, models.AuditActionLogin, "User", user.ID, user.Name, "User logged in", nil, nil)

	// Update last login time
	now := time.Now()
	user.LastLoginAt = &now
	db.DB.Save(&user)

	return c.JSON(http.StatusOK, LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      &user,
	})
}

// RegisterRequest is the firm signup payload: a new tenant with its first
// admin user. Associates and clients are created by admins via /api/users.
type RegisterRequest struct {
	FirmName string `json:"firm_name"`
	Name     string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// RegisterHandler creates a new law firm and its first admin account
func RegisterHandler(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FirmName == "" || req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Firm name, full name, email, and password are required"})
	}

	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Password must be at least 8 characters long"})
	}

	// Reject duplicate email up front for a clean 409
	var existing models.User
	if err := db.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return c.JSON(http.StatusConflict, map[string]string{"error": "An account with this email already exists"})
	}

	hashedPassword, err := services.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	firm := &models.Firm{
		Name:         req.FirmName,
		BillingEmail: req.Email,
	}

	user := &models.User{
		Name:        req.Name,
		Email:       req.Email,
		Password:    hashedPassword,
		Phone:       req.Phone,
		Role:        models.RoleAdmin,
		Permissions: models.PermissionFull,
		IsActive:    true,
	}

	tx := db.DB.Begin()
	if err := tx.Create(firm).Error; err != nil {
		tx.Rollback()
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create law firm")
	}
	user.FirmID = &firm.ID
	if err := tx.Create(user).Error; err != nil {
		tx.Rollback()
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user")
	}
	if err := tx.Commit().Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create account")
	}

	services.LogSecurityEvent("FIRM_REGISTERED", user.ID, "Registered firm: "+firm.ID)

	cfg := c.Get("config").(*config.Config)
	email := services.BuildWelcomeEmail(user.Email, user.Name, firm.Name, cfg.AppURL)
	services.SendEmailAsync(cfg, email)

	user.Firm = firm
	return c.JSON(http.StatusCreated, user)
}

// LogoutHandler revokes the current session token
func LogoutHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	session, _ := c.Get(middleware.ContextKeySession).(*models.Session)

	if user != nil {
		firmID := ""
		firmName := ""
		if user.FirmID != nil {
			firmID = *user.FirmID
		}
		if user.Firm != nil {
			firmName = user.Firm.Name
		}

		auditCtx := services.AuditContext{
			UserID:    user.ID,
			UserName:  user.Name,
			UserRole:  user.Role,
			FirmID:    firmID,
			FirmName:  firmName,
			IPAddress: c.RealIP(),
			UserAgent: c.Request().UserAgent(),
		}
		services.LogAuditEvent(db.DB, auditCtx, models.AuditActionLogout, "User", user.ID, user.Name, "User logged out", nil, nil)
	}

	if session != nil {
		services.DeleteSession(db.DB, session.Token)
	}

	return c.NoContent(http.StatusNoContent)
}

// GetCurrentUserHandler returns the current user info as JSON
func GetCurrentUserHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	firm := middleware.GetCurrentFirm(c)

	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	// Return user with firm info
	user.Firm = firm
	return c.JSON(http.StatusOK, user)
}
