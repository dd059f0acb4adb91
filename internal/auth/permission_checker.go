package auth

import (
	"context"

	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
)

type RoleChecker interface {
	HasRole(ctx context.Context, caller coreuser.Caller, roles ...coreuser.Role) (bool, error)
}

type DefaultRoleChecker struct{}

func NewRoleChecker() RoleChecker {
	return &DefaultRoleChecker{}
}

func (c *DefaultRoleChecker) HasRole(_ context.Context, caller coreuser.Caller, roles ...coreuser.Role) (bool, error) {
	for _, role := range roles {
		if caller.Role == role {
			return true, nil
		}
	}
	return false, nil
}
