package handlers

import (
	"lexdesk/db"
	"lexdesk/middleware"
	"lexdesk/models"
	"lexdesk/services"
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetLawFirmHandler returns the caller's firm. The ID in the path must
// match the caller's own firm; there is no cross-firm lookup.
func GetLawFirmHandler(c echo.Context) error {
	id := c.Param("id")
	currentFirm := middleware.GetCurrentFirm(c)

	if currentFirm.ID != id {
		return echo.NewHTTPError(http.StatusNotFound, "Law firm not found")
	}

	var firm models.Firm
	if err := db.DB.First(&firm, "id = ?", id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Law firm not found")
	}

	return c.JSON(http.StatusOK, firm)
}

// UpdateLawFirmRequest is a partial-merge update payload for firm details
type UpdateLawFirmRequest struct {
	Name         *string `json:"name"`
	Address      *string `json:"address"`
	City         *string `json:"city"`
	Country      *string `json:"country"`
	Phone        *string `json:"phone"`
	Description  *string `json:"description"`
	BillingEmail *string `json:"billing_email"`
	InfoEmail    *string `json:"info_email"`
}

// UpdateLawFirmHandler updates the caller's firm profile (admin only).
// The slug is derived at creation and never changes, so existing case
// numbers keep their prefix.
func UpdateLawFirmHandler(c echo.Context) error {
	id := c.Param("id")
	currentFirm := middleware.GetCurrentFirm(c)

	if currentFirm.ID != id {
		return echo.NewHTTPError(http.StatusNotFound, "Law firm not found")
	}

	var firm models.Firm
	if err := db.DB.First(&firm, "id = ?", id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Law firm not found")
	}

	oldValues := firm

	var req UpdateLawFirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	if req.Name != nil && *req.Name != "" {
		firm.Name = *req.Name
	}
	if req.Address != nil {
		firm.Address = *req.Address
	}
	if req.City != nil {
		firm.City = *req.City
	}
	if req.Country != nil {
		firm.Country = *req.Country
	}
	if req.Phone != nil {
		firm.Phone = *req.Phone
	}
	if req.Description != nil {
		firm.Description = *req.Description
	}
	if req.BillingEmail != nil {
		firm.BillingEmail = *req.BillingEmail
	}
	if req.InfoEmail != nil {
		firm.InfoEmail = *req.InfoEmail
	}

	if err := db.DB.Save(&firm).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update law firm")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionUpdate, "law_firm", firm.ID, firm.Name,
		"Updated firm profile", oldValues, firm)

	return c.JSON(http.StatusOK, firm)
}
