package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/report-hub/internal"
	"github.com/frahmantamala/report-hub/internal/core/common/validation"
)

const dateLayout = "2006-01-02"

type TaskDTO struct {
	Description string   `json:"description"`
	Duration    *float64 `json:"duration"`
	Status      string   `json:"status,omitempty"`
	Priority    string   `json:"priority,omitempty"`
}

// CreateReportDTO represents the request payload for creating a report
type CreateReportDTO struct {
	Type   string    `json:"type"`
	Date   string    `json:"date"`
	Tasks  []TaskDTO `json:"tasks"`
	Notes  string    `json:"notes,omitempty"`
	Status string    `json:"status,omitempty"`
}

func (dto CreateReportDTO) Validate() (time.Time, error) {
	v := validation.NewValidator()
	v.Field("type", dto.Type).Required().OneOf(TypeDaily, TypeWeekly)
	v.Field("date", dto.Date).Required()
	v.Field("tasks", len(dto.Tasks)).MinInt(1)
	v.Field("notes", dto.Notes).MaxLength(MaxNotesLength)
	v.Field("status", dto.Status).OneOf(StatusDraft, StatusSubmitted)

	var date time.Time
	var dateErr *internal.AppError
	if strings.TrimSpace(dto.Date) != "" {
		d, err := ParseDate(dto.Date)
		if err != nil {
			dateErr = internal.NewValidationFieldError("date", "Valid date is required", internal.ErrCodeInvalidDate)
		}
		date = d
	}

	if err := validation.Merge(v.Validate(), dateErr, validateTasks(dto.Tasks)); err != nil {
		return time.Time{}, err
	}
	return date, nil
}

// UpdateReportDTO carries a partial update. Tasks replace the whole list.
type UpdateReportDTO struct {
	Tasks  *[]TaskDTO `json:"tasks,omitempty"`
	Notes  *string    `json:"notes,omitempty"`
	Status *string    `json:"status,omitempty"`
}

func (dto UpdateReportDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("notes", dto.Notes).MaxLength(MaxNotesLength)
	v.Field("status", dto.Status).OneOf(StatusDraft, StatusSubmitted, StatusApproved, StatusRejected)

	var taskErr *internal.AppError
	if dto.Tasks != nil {
		taskErr = validateTasks(*dto.Tasks)
	}
	if err := validation.Merge(v.Validate(), taskErr); err != nil {
		return err
	}
	return nil
}

type ReviewReportDTO struct {
	Status      string `json:"status"`
	ReviewNotes string `json:"reviewNotes,omitempty"`
}

func (dto ReviewReportDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("status", dto.Status).Required().OneOf(StatusApproved, StatusRejected)
	v.Field("reviewNotes", dto.ReviewNotes).MaxLength(MaxNotesLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func validateTasks(tasks []TaskDTO) *internal.AppError {
	v := validation.NewValidator()
	for i, t := range tasks {
		prefix := fmt.Sprintf("tasks[%d].", i)
		v.Field(prefix+"description", t.Description).Required()
		v.Field(prefix+"duration", t.Duration).Required().MinFloat(0)
		v.Field(prefix+"status", t.Status).OneOf(TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted)
		v.Field(prefix+"priority", t.Priority).OneOf(PriorityLow, PriorityMedium, PriorityHigh)
	}
	return v.Validate()
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

type ListFilter struct {
	UserID *int64
	Type   string
	Status string
	// ExcludeStatus is applied only when Status is empty.
	ExcludeStatus string
	Date          *time.Time
	StartDate     *time.Time
	EndDate       *time.Time
	Page          int
	Limit         int
}

func (f ListFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

type ListResult struct {
	Reports []*Report
	Total   int64
}

type StatusCount struct {
	Status string `json:"status" db:"status"`
	Count  int64  `json:"count" db:"count"`
}

type TaskStats struct {
	Total     int            `json:"total"`
	Completed int            `json:"completed"`
	Pending   int            `json:"pending"`
	ByStatus  map[string]int `json:"byStatus"`
}

type Stats struct {
	TotalReports  int64         `json:"totalReports"`
	StatusStats   []StatusCount `json:"statusStats"`
	TaskStats     TaskStats     `json:"taskStats"`
	WeeklyReports []*Report     `json:"weeklyReports"`
}

// Domain errors
var (
	ErrReportNotFound     = internal.NewNotFoundError("Report not found", internal.ErrCodeReportNotFound)
	ErrAccessDenied       = internal.NewForbiddenError("Not authorized to access this report", internal.ErrCodeReportAccessDenied)
	ErrDuplicateReport    = internal.NewConflictError("A report of this type already exists for this date", internal.ErrCodeDuplicateReport)
	ErrReportNotDraft     = internal.NewConflictError("Report can only be modified while in draft", internal.ErrCodeReportNotDraft)
	ErrAlreadySubmitted   = internal.NewConflictError("Report has already been submitted", internal.ErrCodeReportAlreadySubmitted)
	ErrReportNotSubmitted = internal.NewConflictError("Only submitted reports can be reviewed", internal.ErrCodeReportNotSubmitted)
	ErrOnlyOwnerSubmits   = internal.NewForbiddenError("Only the report owner can submit it", internal.ErrCodeReportOwnerOnly)
	ErrStaleReport        = internal.NewConflictError("Report was changed by another request", internal.ErrCodeReportStale)
	ErrInvalidStatus      = internal.NewValidationError("Report status can only be changed to submitted; use review to approve or reject", internal.ErrCodeInvalidReportStatus)
)
