package report

import "time"

type Task struct {
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
}

type Report struct {
	ID          int64      `gorm:"primaryKey"`
	UserID      int64      `gorm:"column:user_id;not null;uniqueIndex:idx_reports_user_type_day,priority:1;index"`
	Type        string     `gorm:"column:type;not null;uniqueIndex:idx_reports_user_type_day,priority:2"`
	ReportDate  time.Time  `gorm:"column:report_date;not null;uniqueIndex:idx_reports_user_type_day,priority:3;index"`
	Year        int        `gorm:"column:year;not null"`
	WeekNumber  *int       `gorm:"column:week_number"`
	Tasks       []Task     `gorm:"column:tasks;type:text;serializer:json;not null"`
	Notes       string     `gorm:"column:notes"`
	Status      string     `gorm:"column:status;not null;default:draft;index"`
	SubmittedAt *time.Time `gorm:"column:submitted_at"`
	ReviewedBy  *int64     `gorm:"column:reviewed_by"`
	ReviewedAt  *time.Time `gorm:"column:reviewed_at"`
	ReviewNotes string     `gorm:"column:review_notes"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Report) TableName() string {
	return "reports"
}
