package notification

import "time"

type Notification struct {
	ID              int64      `gorm:"primaryKey"`
	UserID          int64      `gorm:"column:user_id;not null;index"`
	Type            string     `gorm:"column:type;not null"`
	Title           string     `gorm:"column:title;not null"`
	Message         string     `gorm:"column:message;not null"`
	RelatedReportID *int64     `gorm:"column:related_report_id"`
	IsRead          bool       `gorm:"column:is_read;not null;default:false"`
	ReadAt          *time.Time `gorm:"column:read_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
