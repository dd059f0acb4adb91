package report

import (
	"time"

	"github.com/frahmantamala/report-hub/internal/core/clock"
	reportDatamodel "github.com/frahmantamala/report-hub/internal/core/datamodel/report"
	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
)

const (
	TypeDaily  = "daily"
	TypeWeekly = "weekly"

	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"

	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in-progress"
	TaskStatusCompleted  = "completed"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	MaxNotesLength = 1000
)

type Task struct {
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
}

type Report struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"userId"`
	Type        string     `json:"type"`
	Date        time.Time  `json:"date"`
	Year        int        `json:"year"`
	WeekNumber  *int       `json:"weekNumber,omitempty"`
	Tasks       []Task     `json:"tasks"`
	Notes       string     `json:"notes"`
	Status      string     `json:"status"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	ReviewedBy  *int64     `json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty"`
	ReviewNotes string     `json:"reviewNotes,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CanView reports whether caller may read r.
func CanView(caller coreuser.Caller, r *Report) bool {
	return caller.IsAdmin() || r.UserID == caller.ID
}

// CanEdit reports whether caller may change tasks, notes or delete r.
// Owners lose edit rights once the report leaves draft.
func CanEdit(caller coreuser.Caller, r *Report) bool {
	if caller.IsAdmin() {
		return true
	}
	return r.UserID == caller.ID && r.Status == StatusDraft
}

// CanTransition reports whether caller may move r to target.
//
//	draft --submit(owner)--> submitted --review(admin)--> approved | rejected
func CanTransition(caller coreuser.Caller, r *Report, target string) bool {
	switch target {
	case StatusSubmitted:
		return r.Status == StatusDraft && r.UserID == caller.ID
	case StatusApproved, StatusRejected:
		return r.Status == StatusSubmitted && caller.IsAdmin()
	default:
		return false
	}
}

func IsTerminal(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

// Period returns the calendar year and, for weekly reports, the ISO week of date.
func Period(reportType string, date time.Time) (year int, week *int) {
	date = date.UTC()
	year = date.Year()
	if reportType == TypeWeekly {
		_, w := date.ISOWeek()
		week = &w
	}
	return year, week
}

func NewReport(userID int64, dto CreateReportDTO, date time.Time, now time.Time) *Report {
	day := clock.StartOfDay(date)
	year, week := Period(dto.Type, day)

	status := dto.Status
	if status == "" {
		status = StatusDraft
	}

	r := &Report{
		UserID:     userID,
		Type:       dto.Type,
		Date:       day,
		Year:       year,
		WeekNumber: week,
		Tasks:      normalizeTasks(dto.Tasks),
		Notes:      dto.Notes,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if status == StatusSubmitted {
		r.SubmittedAt = &now
	}
	return r
}

func normalizeTasks(in []TaskDTO) []Task {
	tasks := make([]Task, 0, len(in))
	for _, t := range in {
		task := Task{
			Description: t.Description,
			Status:      t.Status,
			Priority:    t.Priority,
		}
		if t.Duration != nil {
			task.Duration = *t.Duration
		}
		if task.Status == "" {
			task.Status = TaskStatusPending
		}
		if task.Priority == "" {
			task.Priority = PriorityMedium
		}
		tasks = append(tasks, task)
	}
	return tasks
}

func ToDataModel(r *Report) *reportDatamodel.Report {
	tasks := make([]reportDatamodel.Task, len(r.Tasks))
	for i, t := range r.Tasks {
		tasks[i] = reportDatamodel.Task(t)
	}
	return &reportDatamodel.Report{
		ID:          r.ID,
		UserID:      r.UserID,
		Type:        r.Type,
		ReportDate:  r.Date,
		Year:        r.Year,
		WeekNumber:  r.WeekNumber,
		Tasks:       tasks,
		Notes:       r.Notes,
		Status:      r.Status,
		SubmittedAt: r.SubmittedAt,
		ReviewedBy:  r.ReviewedBy,
		ReviewedAt:  r.ReviewedAt,
		ReviewNotes: r.ReviewNotes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func FromDataModel(r *reportDatamodel.Report) *Report {
	tasks := make([]Task, len(r.Tasks))
	for i, t := range r.Tasks {
		tasks[i] = Task(t)
	}
	return &Report{
		ID:          r.ID,
		UserID:      r.UserID,
		Type:        r.Type,
		Date:        r.ReportDate.UTC(),
		Year:        r.Year,
		WeekNumber:  r.WeekNumber,
		Tasks:       tasks,
		Notes:       r.Notes,
		Status:      r.Status,
		SubmittedAt: r.SubmittedAt,
		ReviewedBy:  r.ReviewedBy,
		ReviewedAt:  r.ReviewedAt,
		ReviewNotes: r.ReviewNotes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func FromDataModelSlice(reports []*reportDatamodel.Report) []*Report {
	result := make([]*Report, len(reports))
	for i, r := range reports {
		result[i] = FromDataModel(r)
	}
	return result
}
