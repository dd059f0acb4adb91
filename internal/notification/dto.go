package notification

import "github.com/frahmantamala/report-hub/internal"

const DefaultPageSize = 20

type ListFilter struct {
	UnreadOnly bool
	Page       int
	Limit      int
}

func (f ListFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

type ListResult struct {
	Notifications []*Notification
	Total         int64
	UnreadCount   int64
}

var (
	ErrNotificationNotFound = internal.NewNotFoundError("Notification not found", internal.ErrCodeNotificationNotFound)
	ErrAccessDenied         = internal.NewForbiddenError("Not authorized to access this notification", internal.ErrCodeNotificationAccessDenied)
)
