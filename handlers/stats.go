package handlers

import (
	"lexdesk/db"
	"lexdesk/middleware"
	"lexdesk/models"
	"lexdesk/services"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// caseDeadline is a dashboard row for a case approaching its deadline
type caseDeadline struct {
	CaseID     string `json:"case_id"`
	CaseNumber string `json:"case_number"`
	Title      string `json:"title"`
	Progress   int    `json:"progress"`
	DaysLeft   int    `json:"days_left"`
}

// GetLawFirmStatsHandler returns dashboard figures for the caller's firm
func GetLawFirmStatsHandler(c echo.Context) error {
	id := c.Param("id")
	currentFirm := middleware.GetCurrentFirm(c)

	if currentFirm.ID != id {
		return echo.NewHTTPError(http.StatusNotFound, "Law firm not found")
	}

	stats, err := services.GetFirmStats(db.DB, currentFirm.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to compute statistics")
	}

	return c.JSON(http.StatusOK, stats)
}

// GetUserStatsHandler returns dashboard figures for a user, including the
// nearest case deadlines with estimated progress. Non-admins can only query
// their own stats.
func GetUserStatsHandler(c echo.Context) error {
	id := c.Param("id")
	currentUser := middleware.GetCurrentUser(c)

	if !middleware.CanAccessUser(c, id) {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}

	target := currentUser
	if id != currentUser.ID {
		var user models.User
		query := middleware.GetFirmScopedQuery(c, db.DB)
		if err := query.First(&user, "id = ?", id).Error; err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		target = &user
	}

	stats, err := services.GetUserStats(db.DB, target)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to compute statistics")
	}

	// Nearest upcoming deadlines with progress estimates
	now := time.Now()
	caseScope := db.DB.Where("deadline IS NOT NULL AND deadline > ? AND status = ?",
		now, models.CaseStatusActive)
	if target.IsClient() {
		caseScope = caseScope.Where("client_id = ?", target.ID)
	} else {
		caseScope = caseScope.Where("assigned_to_id = ?", target.ID)
	}

	var cases []models.Case
	if err := caseScope.Order("deadline ASC").Limit(5).Find(&cases).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch deadlines")
	}

	deadlines := make([]caseDeadline, 0, len(cases))
	for i := range cases {
		days, ok := services.DaysLeft(cases[i].Deadline, now)
		if !ok {
			continue
		}
		deadlines = append(deadlines, caseDeadline{
			CaseID:     cases[i].ID,
			CaseNumber: cases[i].CaseNumber,
			Title:      cases[i].Title,
			Progress:   services.CaseProgress(&cases[i], now),
			DaysLeft:   days,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"stats":     stats,
		"deadlines": deadlines,
	})
}
