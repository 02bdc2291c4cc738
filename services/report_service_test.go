package services

import (
	"lexdesk/models"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupReportTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	db.AutoMigrate(&models.Firm{}, &models.User{}, &models.Case{}, &models.Document{})
	return db
}

func TestExportCaseRegister(t *testing.T) {
	db := setupReportTestDB()

	db.Create(&models.Firm{ID: "firm-1", Name: "Register Firm", Slug: "register-firm"})
	db.Create(&models.User{ID: "client-1", Name: "Listed Client", Email: "client@test.com", FirmID: strPtr("firm-1"), Role: models.RoleClient})
	db.Create(&models.User{ID: "staff-1", Name: "Handling Lawyer", Email: "staff@test.com", FirmID: strPtr("firm-1"), Role: models.RoleAssociate})

	deadline := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	fileNumber := "EXP-044"
	db.Create(&models.Case{
		ID: "case-1", FirmID: "firm-1", ClientID: "client-1", AssignedToID: strPtr("staff-1"),
		CaseNumber: "register-firm-2026-00001", FileNumber: &fileNumber,
		Title: "Estate dispute", CaseType: "civil", Status: models.CaseStatusActive,
		Priority: models.CasePriorityHigh, DateOpened: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Deadline: &deadline,
	})
	db.Create(&models.Case{
		ID: "case-2", FirmID: "firm-1", ClientID: "client-1",
		CaseNumber: "register-firm-2026-00002",
		Title: "No file number", CaseType: "labor", Status: models.CaseStatusClosed,
		Priority: models.CasePriorityLow, DateOpened: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	// Other firm stays out of the register
	db.Create(&models.Case{ID: "case-3", FirmID: "firm-2", ClientID: "client-1", CaseNumber: "x-2026-00001", Title: "Foreign", CaseType: "civil", DateOpened: time.Now()})

	buf, err := ExportCaseRegister(db, "firm-1")
	assert.NoError(t, err)

	workbook, err := excelize.OpenReader(buf)
	assert.NoError(t, err)
	defer workbook.Close()

	rows, err := workbook.GetRows("Cases")
	assert.NoError(t, err)
	assert.Len(t, rows, 3) // header + 2 cases

	assert.Equal(t, "Case Number", rows[0][0])
	assert.Equal(t, "Deadline", rows[0][9])

	// Newest first by date opened
	assert.Equal(t, "register-firm-2026-00002", rows[1][0])
	assert.Equal(t, "register-firm-2026-00001", rows[2][0])
	assert.Equal(t, "EXP-044", rows[2][1])
	assert.Equal(t, "Listed Client", rows[2][3])
	assert.Equal(t, "Handling Lawyer", rows[2][7])
	assert.Equal(t, "2026-12-01", rows[2][9])
}

func TestCaseRegisterFileName(t *testing.T) {
	name := CaseRegisterFileName("acme-legal")
	assert.True(t, strings.HasPrefix(name, "case-register-acme-legal-"))
	assert.True(t, strings.HasSuffix(name, ".xlsx"))
}
