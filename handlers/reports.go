package handlers

import (
	"lexdesk/db"
	"lexdesk/middleware"
	"lexdesk/services"
	"net/http"

	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportCasesHandler downloads the firm's case register as an xlsx file
func ExportCasesHandler(c echo.Context) error {
	currentFirm := middleware.GetCurrentFirm(c)

	buf, err := services.ExportCaseRegister(db.DB, currentFirm.ID)
	if err != nil {
		c.Logger().Errorf("case export failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to export cases")
	}

	filename := services.CaseRegisterFileName(currentFirm.Slug)
	c.Response().Header().Set("Content-Disposition", "attachment; filename="+filename)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
