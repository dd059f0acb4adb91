package events

import (
	"time"

	"github.com/google/uuid"
)

const EventTypeReportReviewed = "report.reviewed"

// ReportReviewedEvent is published after an admin approves or rejects a
// submitted report.
type ReportReviewedEvent struct {
	BaseEvent
	ReportID    int64     `json:"report_id"`
	OwnerID     int64     `json:"owner_id"`
	ReviewerID  int64     `json:"reviewer_id"`
	Status      string    `json:"status"`
	ReportDate  time.Time `json:"report_date"`
	ReviewNotes string    `json:"review_notes"`
}

func NewReportReviewedEvent(reportID, ownerID, reviewerID int64, status string, reportDate time.Time, notes string, at time.Time) *ReportReviewedEvent {
	return &ReportReviewedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeReportReviewed,
			Timestamp: at,
			Data: map[string]interface{}{
				"report_id":    reportID,
				"owner_id":     ownerID,
				"reviewer_id":  reviewerID,
				"status":       status,
				"report_date":  reportDate,
				"review_notes": notes,
			},
		},
		ReportID:    reportID,
		OwnerID:     ownerID,
		ReviewerID:  reviewerID,
		Status:      status,
		ReportDate:  reportDate,
		ReviewNotes: notes,
	}
}
