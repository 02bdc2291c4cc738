package services

import (
	"fmt"
	"lexdesk/models"
	"math"
	"time"

	"gorm.io/gorm"
)

// CaseProgress estimates completion of a case as a percentage. The heuristic
// weights the status and nudges the figure by how long the case has been open.
func CaseProgress(c *models.Case, now time.Time) int {
	switch c.Status {
	case models.CaseStatusClosed, models.CaseStatusArchived:
		return 100
	}

	base := 25
	if c.Status == models.CaseStatusOnHold {
		base = 50
	}

	// Age buckets: older cases are assumed further along
	ageDays := int(now.Sub(c.DateOpened).Hours() / 24)
	switch {
	case ageDays > 180:
		base += 40
	case ageDays > 90:
		base += 25
	case ageDays > 30:
		base += 10
	}

	if base > 95 {
		base = 95
	}
	return base
}

// DaysLeft returns the whole days remaining until the deadline, negative when
// the deadline has passed. Returns 0 and false when no deadline is set.
func DaysLeft(deadline *time.Time, now time.Time) (int, bool) {
	if deadline == nil {
		return 0, false
	}
	days := int(math.Ceil(deadline.Sub(now).Hours() / 24))
	return days, true
}

// FirmStats aggregates the dashboard figures for a firm
type FirmStats struct {
	MemberCount     int64 `json:"member_count"`
	ClientCount     int64 `json:"client_count"`
	CaseCount       int64 `json:"case_count"`
	ActiveCases     int64 `json:"active_cases"`
	DocumentCount   int64 `json:"document_count"`
	PendingInvoices int64 `json:"pending_invoices"`
	OverdueInvoices int64 `json:"overdue_invoices"`
	UpcomingEvents  int64 `json:"upcoming_events"`
}

// GetFirmStats computes the dashboard statistics for a firm
func GetFirmStats(db *gorm.DB, firmID string) (*FirmStats, error) {
	stats := &FirmStats{}
	now := time.Now()

	type countQuery struct {
		dest  *int64
		query *gorm.DB
	}

	queries := []countQuery{
		{&stats.MemberCount, db.Model(&models.User{}).Where("firm_id = ? AND role <> ?", firmID, models.RoleClient)},
		{&stats.ClientCount, db.Model(&models.User{}).Where("firm_id = ? AND role = ?", firmID, models.RoleClient)},
		{&stats.CaseCount, db.Model(&models.Case{}).Where("firm_id = ?", firmID)},
		{&stats.ActiveCases, db.Model(&models.Case{}).Where("firm_id = ? AND status = ?", firmID, models.CaseStatusActive)},
		{&stats.DocumentCount, db.Model(&models.Document{}).Where("firm_id = ?", firmID)},
		{&stats.PendingInvoices, db.Model(&models.Invoice{}).Where("firm_id = ? AND status = ?", firmID, models.InvoiceStatusPending)},
		{&stats.OverdueInvoices, db.Model(&models.Invoice{}).Where("firm_id = ? AND status = ?", firmID, models.InvoiceStatusOverdue)},
		{&stats.UpcomingEvents, db.Model(&models.Event{}).Where("firm_id = ? AND start_time > ? AND status IN (?, ?)", firmID, now, models.EventStatusScheduled, models.EventStatusConfirmed)},
	}

	for _, q := range queries {
		if err := q.query.Count(q.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to compute firm stats: %w", err)
		}
	}

	return stats, nil
}

// UserStats aggregates the dashboard figures for a single user
type UserStats struct {
	AssignedCases     int64 `json:"assigned_cases"`
	ActiveCases       int64 `json:"active_cases"`
	UpcomingDeadlines int64 `json:"upcoming_deadlines"`
	NoteCount         int64 `json:"note_count"`
	UpcomingEvents    int64 `json:"upcoming_events"`
}

// GetUserStats computes the dashboard statistics for a user. For clients, the
// case figures cover cases where they are the named client; for staff, cases
// assigned to them.
func GetUserStats(db *gorm.DB, user *models.User) (*UserStats, error) {
	stats := &UserStats{}
	now := time.Now()

	caseScope := db.Model(&models.Case{})
	if user.IsClient() {
		caseScope = caseScope.Where("client_id = ?", user.ID)
	} else {
		caseScope = caseScope.Where("assigned_to_id = ?", user.ID)
	}

	if err := caseScope.Session(&gorm.Session{}).Count(&stats.AssignedCases).Error; err != nil {
		return nil, fmt.Errorf("failed to count cases: %w", err)
	}
	if err := caseScope.Session(&gorm.Session{}).Where("status = ?", models.CaseStatusActive).Count(&stats.ActiveCases).Error; err != nil {
		return nil, fmt.Errorf("failed to count active cases: %w", err)
	}
	if err := caseScope.Session(&gorm.Session{}).Where("deadline IS NOT NULL AND deadline > ? AND status = ?", now, models.CaseStatusActive).Count(&stats.UpcomingDeadlines).Error; err != nil {
		return nil, fmt.Errorf("failed to count deadlines: %w", err)
	}

	if err := db.Model(&models.Note{}).Where("user_id = ? AND is_archived = ?", user.ID, false).Count(&stats.NoteCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count notes: %w", err)
	}

	var eventScope *gorm.DB
	if user.IsClient() {
		eventScope = db.Model(&models.Event{}).Where("start_time > ? AND client_id = ? AND client_invited = ?", now, user.ID, true)
	} else {
		eventScope = db.Model(&models.Event{}).Where("start_time > ? AND assigned_to_id = ?", now, user.ID)
	}
	if err := eventScope.Count(&stats.UpcomingEvents).Error; err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	return stats, nil
}
