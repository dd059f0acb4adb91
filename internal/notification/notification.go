package notification

import (
	"fmt"
	"time"

	notificationDatamodel "github.com/frahmantamala/report-hub/internal/core/datamodel/notification"
)

const (
	TypeReportApproved = "report_approved"
	TypeReportRejected = "report_rejected"
)

type Notification struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"userId"`
	Type            string     `json:"type"`
	Title           string     `json:"title"`
	Message         string     `json:"message"`
	RelatedReportID *int64     `json:"relatedReportId,omitempty"`
	IsRead          bool       `json:"isRead"`
	ReadAt          *time.Time `json:"readAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// ForReview builds the notification sent to a report owner after review.
func ForReview(ownerID, reportID int64, status string, reportDate time.Time, notes string) *Notification {
	typ, title := TypeReportRejected, "Report Rejected"
	if status == "approved" {
		typ, title = TypeReportApproved, "Report Approved"
	}

	message := fmt.Sprintf("Your report for %s has been %s.", reportDate.UTC().Format("2006-01-02"), status)
	if notes != "" {
		message += " Feedback: " + notes
	}

	return &Notification{
		UserID:          ownerID,
		Type:            typ,
		Title:           title,
		Message:         message,
		RelatedReportID: &reportID,
	}
}

func ToDataModel(n *Notification) *notificationDatamodel.Notification {
	return &notificationDatamodel.Notification{
		ID:              n.ID,
		UserID:          n.UserID,
		Type:            n.Type,
		Title:           n.Title,
		Message:         n.Message,
		RelatedReportID: n.RelatedReportID,
		IsRead:          n.IsRead,
		ReadAt:          n.ReadAt,
		CreatedAt:       n.CreatedAt,
	}
}

func FromDataModel(n *notificationDatamodel.Notification) *Notification {
	return &Notification{
		ID:              n.ID,
		UserID:          n.UserID,
		Type:            n.Type,
		Title:           n.Title,
		Message:         n.Message,
		RelatedReportID: n.RelatedReportID,
		IsRead:          n.IsRead,
		ReadAt:          n.ReadAt,
		CreatedAt:       n.CreatedAt,
	}
}

func FromDataModelSlice(in []*notificationDatamodel.Notification) []*Notification {
	out := make([]*Notification, len(in))
	for i, n := range in {
		out[i] = FromDataModel(n)
	}
	return out
}
