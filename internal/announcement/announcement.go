package announcement

import (
	"time"

	announcementDatamodel "github.com/frahmantamala/report-hub/internal/core/datamodel/announcement"
	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
)

const (
	TypeGeneral = "general"
	TypeUrgent  = "urgent"
	TypeEvent   = "event"
	TypePolicy  = "policy"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	AudienceAll      = "all"
	AudienceEmployee = "employee"
	AudienceAdmin    = "admin"

	MaxTitleLength = 200
)

type Attachment struct {
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type ReadReceipt struct {
	UserID int64     `json:"userId"`
	ReadAt time.Time `json:"readAt"`
}

type Announcement struct {
	ID             int64         `json:"id"`
	Title          string        `json:"title"`
	Content        string        `json:"content"`
	Type           string        `json:"type"`
	Priority       string        `json:"priority"`
	AuthorID       int64         `json:"authorId"`
	IsPublished    bool          `json:"isPublished"`
	PublishedAt    *time.Time    `json:"publishedAt,omitempty"`
	ExpiresAt      *time.Time    `json:"expiresAt,omitempty"`
	TargetAudience []string      `json:"targetAudience"`
	Attachments    []Attachment  `json:"attachments"`
	ReadBy         []ReadReceipt `json:"readBy"`
	ReadCount      int           `json:"readCount"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// Targets reports whether role is in the audience, directly or through "all".
func (a *Announcement) Targets(role coreuser.Role) bool {
	for _, t := range a.TargetAudience {
		if t == AudienceAll || t == string(role) {
			return true
		}
	}
	return false
}

func (a *Announcement) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && a.ExpiresAt.Before(now)
}

// Visible reports whether caller may see a. Admins see everything; everyone
// else only published, unexpired announcements aimed at their role.
func Visible(caller coreuser.Caller, a *Announcement, now time.Time) bool {
	if caller.IsAdmin() {
		return true
	}
	return a.IsPublished && !a.Expired(now) && a.Targets(caller.Role)
}

// Publish sets the published flag and stamps publishedAt the first time only.
func (a *Announcement) Publish(published bool, now time.Time) {
	a.IsPublished = published
	if published && a.PublishedAt == nil {
		a.PublishedAt = &now
	}
}

func (a *Announcement) HasRead(userID int64) bool {
	for _, r := range a.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

func ToDataModel(a *Announcement) *announcementDatamodel.Announcement {
	attachments := make([]announcementDatamodel.Attachment, len(a.Attachments))
	for i, at := range a.Attachments {
		attachments[i] = announcementDatamodel.Attachment(at)
	}
	return &announcementDatamodel.Announcement{
		ID:             a.ID,
		Title:          a.Title,
		Content:        a.Content,
		Type:           a.Type,
		Priority:       a.Priority,
		AuthorID:       a.AuthorID,
		IsPublished:    a.IsPublished,
		PublishedAt:    a.PublishedAt,
		ExpiresAt:      a.ExpiresAt,
		TargetAudience: announcementDatamodel.AudienceList(a.TargetAudience),
		Attachments:    attachments,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func FromDataModel(m *announcementDatamodel.Announcement) *Announcement {
	attachments := make([]Attachment, len(m.Attachments))
	for i, at := range m.Attachments {
		attachments[i] = Attachment(at)
	}
	reads := make([]ReadReceipt, len(m.Reads))
	for i, r := range m.Reads {
		reads[i] = ReadReceipt{UserID: r.UserID, ReadAt: r.ReadAt}
	}
	audience := []string(m.TargetAudience)
	if audience == nil {
		audience = []string{}
	}
	return &Announcement{
		ID:             m.ID,
		Title:          m.Title,
		Content:        m.Content,
		Type:           m.Type,
		Priority:       m.Priority,
		AuthorID:       m.AuthorID,
		IsPublished:    m.IsPublished,
		PublishedAt:    m.PublishedAt,
		ExpiresAt:      m.ExpiresAt,
		TargetAudience: audience,
		Attachments:    attachments,
		ReadBy:         reads,
		ReadCount:      len(reads),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func FromDataModelSlice(in []*announcementDatamodel.Announcement) []*Announcement {
	out := make([]*Announcement, len(in))
	for i, m := range in {
		out[i] = FromDataModel(m)
	}
	return out
}
