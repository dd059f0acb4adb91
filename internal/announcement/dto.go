package announcement

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/frahmantamala/report-hub/internal"
	"github.com/frahmantamala/report-hub/internal/core/common/validation"
	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
)

type AttachmentDTO struct {
	Filename   string     `json:"filename"`
	URL        string     `json:"url"`
	UploadedAt *time.Time `json:"uploadedAt,omitempty"`
}

type CreateAnnouncementDTO struct {
	Title          string          `json:"title"`
	Content        string          `json:"content"`
	Type           string          `json:"type,omitempty"`
	Priority       string          `json:"priority,omitempty"`
	IsPublished    bool            `json:"isPublished"`
	ExpiresAt      *time.Time      `json:"expiresAt,omitempty"`
	TargetAudience []string        `json:"targetAudience,omitempty"`
	Attachments    []AttachmentDTO `json:"attachments,omitempty"`
}

func (dto CreateAnnouncementDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("title", dto.Title).Required().MaxLength(MaxTitleLength)
	v.Field("content", dto.Content).Required()
	v.Field("type", dto.Type).OneOf(TypeGeneral, TypeUrgent, TypeEvent, TypePolicy)
	v.Field("priority", dto.Priority).OneOf(PriorityLow, PriorityMedium, PriorityHigh)

	if err := validation.Merge(v.Validate(), validateAudience(dto.TargetAudience), validateAttachments(dto.Attachments)); err != nil {
		return err
	}
	return nil
}

// OptionalTime distinguishes an absent field from an explicit null.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

type UpdateAnnouncementDTO struct {
	Title          *string          `json:"title,omitempty"`
	Content        *string          `json:"content,omitempty"`
	Type           *string          `json:"type,omitempty"`
	Priority       *string          `json:"priority,omitempty"`
	IsPublished    *bool            `json:"isPublished,omitempty"`
	ExpiresAt      OptionalTime     `json:"expiresAt"`
	TargetAudience *[]string        `json:"targetAudience,omitempty"`
	Attachments    *[]AttachmentDTO `json:"attachments,omitempty"`
}

func (dto UpdateAnnouncementDTO) Validate() error {
	v := validation.NewValidator()
	if dto.Title != nil {
		v.Field("title", *dto.Title).Required().MaxLength(MaxTitleLength)
	}
	if dto.Content != nil {
		v.Field("content", *dto.Content).Required()
	}
	v.Field("type", dto.Type).OneOf(TypeGeneral, TypeUrgent, TypeEvent, TypePolicy)
	v.Field("priority", dto.Priority).OneOf(PriorityLow, PriorityMedium, PriorityHigh)

	var audienceErr, attachmentErr *internal.AppError
	if dto.TargetAudience != nil {
		audienceErr = validateAudience(*dto.TargetAudience)
	}
	if dto.Attachments != nil {
		attachmentErr = validateAttachments(*dto.Attachments)
	}
	if err := validation.Merge(v.Validate(), audienceErr, attachmentErr); err != nil {
		return err
	}
	return nil
}

func validateAudience(audience []string) *internal.AppError {
	v := validation.NewValidator()
	for i, a := range audience {
		v.Field(fmt.Sprintf("targetAudience[%d]", i), a).Required().OneOf(AudienceAll, AudienceEmployee, AudienceAdmin)
	}
	return v.Validate()
}

func validateAttachments(attachments []AttachmentDTO) *internal.AppError {
	v := validation.NewValidator()
	for i, a := range attachments {
		v.Field(fmt.Sprintf("attachments[%d].filename", i), a.Filename).Required()
		v.Field(fmt.Sprintf("attachments[%d].url", i), a.URL).Required()
	}
	return v.Validate()
}

func toAttachments(in []AttachmentDTO, now time.Time) []Attachment {
	out := make([]Attachment, 0, len(in))
	for _, a := range in {
		uploaded := now
		if a.UploadedAt != nil {
			uploaded = a.UploadedAt.UTC()
		}
		out = append(out, Attachment{Filename: a.Filename, URL: a.URL, UploadedAt: uploaded})
	}
	return out
}

func dedupeAudience(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, a := range in {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

// Visibility restricts a listing to what a non-admin viewer may see.
type Visibility struct {
	Role coreuser.Role
	Now  time.Time
}

type ListFilter struct {
	Visibility  *Visibility
	Type        string
	Priority    string
	IsPublished *bool
	Page        int
	Limit       int
}

func (f ListFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

type ListResult struct {
	Announcements []*Announcement
	Total         int64
}

var (
	ErrAnnouncementNotFound = internal.NewNotFoundError("Announcement not found", internal.ErrCodeAnnouncementNotFound)
)
