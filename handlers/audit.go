package handlers

import (
	"lexdesk/db"
	"lexdesk/middleware"
	"lexdesk/services"
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetResourceAuditHistoryHandler returns the audit trail for a single
// resource, newest first (admin only via routing). The resource must belong
// to the caller's firm.
func GetResourceAuditHistoryHandler(c echo.Context) error {
	resourceType := c.Param("type")
	resourceID := c.Param("id")
	currentFirm := middleware.GetCurrentFirm(c)

	logs, err := services.GetResourceAuditHistory(db.DB, resourceType, resourceID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch audit history")
	}

	// Entries written for another firm's resources stay invisible
	filtered := logs[:0]
	for _, entry := range logs {
		if entry.FirmID == nil || *entry.FirmID == currentFirm.ID {
			filtered = append(filtered, entry)
		}
	}

	return c.JSON(http.StatusOK, filtered)
}
