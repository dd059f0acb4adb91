package user

import (
	"github.com/frahmantamala/report-hub/internal"
	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
)

var (
	ErrSelfDeactivation       = internal.NewValidationError("You cannot deactivate your own account", internal.ErrCodeSelfDeactivation)
	ErrInvalidCurrentPassword = internal.NewValidationError("Current password is incorrect", internal.ErrCodeInvalidCurrentPassword)
)

type ListFilter struct {
	Role       string
	Department string
	IsActive   *bool
	// Search matches a case-insensitive substring of name or email.
	Search string
	Page   int
	Limit  int
}

func (f ListFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

type ListResult struct {
	Users []*coreuser.User
	Total int64
}

func Profiles(users []*coreuser.User) []coreuser.Profile {
	out := make([]coreuser.Profile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	return out
}
