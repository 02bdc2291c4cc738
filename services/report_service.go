package services

import (
	"bytes"
	"fmt"
	"lexdesk/models"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// caseRegisterHeaders are the columns of the case register export
var caseRegisterHeaders = []string{
	"Case Number", "File Number", "Title", "Client", "Type",
	"Status", "Priority", "Assigned To", "Date Opened", "Deadline",
}

// ExportCaseRegister builds an .xlsx workbook listing all of a firm's cases
func ExportCaseRegister(db *gorm.DB, firmID string) (*bytes.Buffer, error) {
	var cases []models.Case
	if err := db.Where("firm_id = ?", firmID).
		Preload("Client").
		Preload("AssignedTo").
		Order("date_opened DESC").
		Find(&cases).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch cases for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Cases"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	if err := f.SetSheetRow(sheet, "A1", &caseRegisterHeaders); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, c := range cases {
		assignedTo := ""
		if c.AssignedTo != nil {
			assignedTo = c.AssignedTo.Name
		}
		deadline := ""
		if c.Deadline != nil {
			deadline = c.Deadline.Format("2006-01-02")
		}
		fileNumber := ""
		if c.FileNumber != nil {
			fileNumber = *c.FileNumber
		}

		row := []interface{}{
			c.CaseNumber,
			fileNumber,
			c.Title,
			c.Client.Name,
			c.CaseType,
			c.Status,
			c.Priority,
			assignedTo,
			c.DateOpened.Format("2006-01-02"),
			deadline,
		}

		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write case row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf, nil
}

// CaseRegisterFileName returns the attachment name for an export
func CaseRegisterFileName(firmSlug string) string {
	return fmt.Sprintf("case-register-%s-%s.xlsx", firmSlug, time.Now().Format("2006-01-02"))
}
