package announcement

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

type Attachment struct {
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// AudienceList is stored comma-joined so visibility can be checked with a
// portable LIKE on ",<role>,".
type AudienceList []string

func (a AudienceList) Value() (driver.Value, error) {
	return strings.Join(a, ","), nil
}

func (a *AudienceList) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("announcement: cannot scan %T into AudienceList", src)
	}
	if s == "" {
		*a = AudienceList{}
		return nil
	}
	*a = strings.Split(s, ",")
	return nil
}

type Announcement struct {
	ID             int64        `gorm:"primaryKey"`
	Title          string       `gorm:"column:title;not null"`
	Content        string       `gorm:"column:content;not null"`
	Type           string       `gorm:"column:type;not null;default:general"`
	Priority       string       `gorm:"column:priority;not null;default:medium"`
	AuthorID       int64        `gorm:"column:author_id;not null"`
	IsPublished    bool         `gorm:"column:is_published;not null;default:false;index"`
	PublishedAt    *time.Time   `gorm:"column:published_at"`
	ExpiresAt      *time.Time   `gorm:"column:expires_at"`
	TargetAudience AudienceList `gorm:"column:target_audience;type:text;not null"`
	Attachments    []Attachment `gorm:"column:attachments;type:text;serializer:json"`
	Reads          []Read       `gorm:"foreignKey:AnnouncementID"`
	CreatedAt      time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

func (Announcement) TableName() string {
	return "announcements"
}

type Read struct {
	ID             int64     `gorm:"primaryKey"`
	AnnouncementID int64     `gorm:"column:announcement_id;not null;uniqueIndex:idx_announcement_reads_user,priority:1"`
	UserID         int64     `gorm:"column:user_id;not null;uniqueIndex:idx_announcement_reads_user,priority:2"`
	ReadAt         time.Time `gorm:"column:read_at;not null"`
}

func (Read) TableName() string {
	return "announcement_reads"
}
