package handlers

import (
	"encoding/json"
	"lexdesk/models"
	"lexdesk/services"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegisterHandler(t *testing.T) {
	database := setupTestDB(t)

	t.Run("Success", func(t *testing.T) {
		body := `{"firm_name":"Acme Legal","full_name":"Ada Admin","email":"ada@acme.test","password":"supersecret"}`
		_, c, rec := setupEchoJSON(http.MethodPost, "/api/auth/register", strings.NewReader(body))

		err := RegisterHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var created models.User
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, models.RoleAdmin, created.Role)
		assert.Equal(t, models.PermissionFull, created.Permissions)
		assert.NotNil(t, created.FirmID)

		// Password hash never leaves the server
		assert.NotContains(t, rec.Body.String(), "supersecret")

		var firm models.Firm
		assert.NoError(t, database.First(&firm, "id = ?", *created.FirmID).Error)
		assert.Equal(t, "acme-legal", firm.Slug)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		body := `{"firm_name":"Other Firm","full_name":"Ada Again","email":"ada@acme.test","password":"supersecret"}`
		_, c, rec := setupEchoJSON(http.MethodPost, "/api/auth/register", strings.NewReader(body))

		err := RegisterHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Short password", func(t *testing.T) {
		body := `{"firm_name":"Firm","full_name":"User","email":"short@acme.test","password":"short"}`
		_, c, rec := setupEchoJSON(http.MethodPost, "/api/auth/register", strings.NewReader(body))

		err := RegisterHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginHandler(t *testing.T) {
	database := setupTestDB(t)

	firm := &models.Firm{ID: "firm-a1", Name: "Auth Firm", Slug: "auth-firm"}
	database.Create(firm)

	hashed, _ := services.HashPassword("correct horse")
	user := &models.User{
		ID: "user-a1", Name: "Login User", Email: "login@test.com",
		Password: hashed, FirmID: stringToPtr(firm.ID),
		Role: models.RoleAssociate, IsActive: true,
	}
	database.Create(user)

	t.Run("Success returns token", func(t *testing.T) {
		body := `{"email":"login@test.com","password":"correct horse"}`
		_, c, rec := setupEchoJSON(http.MethodPost, "/api/auth/login", strings.NewReader(body))

		err := LoginHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp LoginResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.True(t, resp.ExpiresAt.After(time.Now()))
		assert.Equal(t, user.ID, resp.User.ID)

		// The token resolves to a session
		session, err := services.ValidateSession(database, resp.Token)
		assert.NoError(t, err)
		assert.Equal(t, user.ID, session.UserID)
	})

	t.Run("Wrong password", func(t *testing.T) {
		body := `{"email":"login@test.com","password":"wrong"}`
		_, c, rec := setupEchoJSON(http.MethodPost, "/api/auth/login", strings.NewReader(body))

		err := LoginHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Unknown email", func(t *testing.T) {
		body := `{"email":"nobody@test.com","password":"whatever"}`
		_, c, rec := setupEchoJSON(http.MethodPost, "/api/auth/login", strings.NewReader(body))

		err := LoginHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Deactivated account", func(t *testing.T) {
		hashedInactive, _ := services.HashPassword("password123")
		database.Create(&models.User{
			ID: "user-a2", Name: "Inactive", Email: "inactive@test.com",
			Password: hashedInactive, FirmID: stringToPtr(firm.ID),
			Role: models.RoleAssociate,
		})
		// IsActive defaults to true on insert; flip it with an explicit update
		database.Model(&models.User{}).Where("id = ?", "user-a2").Update("is_active", false)

		body := `{"email":"inactive@test.com","password":"password123"}`
		_, c, rec := setupEchoJSON(http.MethodPost, "/api/auth/login", strings.NewReader(body))

		err := LoginHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Lockout after repeated failures", func(t *testing.T) {
		hashedLock, _ := services.HashPassword("password123")
		database.Create(&models.User{
			ID: "user-a3", Name: "Lockout", Email: "lockout@test.com",
			Password: hashedLock, FirmID: stringToPtr(firm.ID),
			Role: models.RoleAssociate, IsActive: true,
		})

		for i := 0; i < 5; i++ {
			body := `{"email":"lockout@test.com","password":"wrong"}`
			_, c, _ := setupEchoJSON(http.MethodPost, "/api/auth/login", strings.NewReader(body))
			assert.NoError(t, LoginHandler(c))
		}

		var locked models.User
		database.First(&locked, "id = ?", "user-a3")
		assert.NotNil(t, locked.LockoutUntil)

		// Even the correct password is rejected while locked
		body := `{"email":"lockout@test.com","password":"password123"}`
		_, c, rec := setupEchoJSON(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		assert.NoError(t, LoginHandler(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLogoutHandler(t *testing.T) {
	database := setupTestDB(t)

	firm := &models.Firm{ID: "firm-a4", Name: "Logout Firm", Slug: "logout-firm"}
	database.Create(firm)

	user := &models.User{ID: "user-a4", Name: "Bye", Email: "bye@test.com", FirmID: stringToPtr(firm.ID), Role: models.RoleAssociate, IsActive: true}
	database.Create(user)

	session, err := services.CreateSession(database, user.ID, firm.ID, "127.0.0.1", "test-agent")
	assert.NoError(t, err)

	_, c, rec := setupEcho(http.MethodPost, "/api/auth/logout", nil)
	c.Set("user", user)
	c.Set("firm", firm)
	c.Set("session", session)

	assert.NoError(t, LogoutHandler(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err = services.ValidateSession(database, session.Token)
	assert.Error(t, err)
}

func TestGetCurrentUserHandler(t *testing.T) {
	setupTestDB(t)

	firm := &models.Firm{ID: "firm-a5", Name: "Me Firm", Slug: "me-firm"}
	user := &models.User{ID: "user-a5", Name: "Me", Email: "me@test.com", FirmID: stringToPtr(firm.ID), Role: models.RoleAdmin}

	t.Run("Success", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodGet, "/api/auth/me", nil)
		c.Set("user", user)
		c.Set("firm", firm)

		assert.NoError(t, GetCurrentUserHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "me@test.com")
	})

	t.Run("Not authenticated", func(t *testing.T) {
		_, c, _ := setupEcho(http.MethodGet, "/api/auth/me", nil)

		err := GetCurrentUserHandler(c)
		assert.Error(t, err)
	})
}
