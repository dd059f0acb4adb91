package user

import (
	"github.com/frahmantamala/report-hub/internal/core/common/validation"
)

const MinPasswordLength = 6

// UpdateUserDTO is the admin edit. Role is deliberately absent.
type UpdateUserDTO struct {
	Name       *string `json:"name"`
	Department *string `json:"department"`
	Position   *string `json:"position"`
	IsActive   *bool   `json:"isActive"`
}

type UpdateProfileDTO struct {
	Name       *string `json:"name"`
	Department *string `json:"department"`
	Position   *string `json:"position"`
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (d UpdateUserDTO) Validate() error {
	return validateProfileFields(d.Name, d.Department, d.Position)
}

func (d UpdateProfileDTO) Validate() error {
	return validateProfileFields(d.Name, d.Department, d.Position)
}

func validateProfileFields(name, department, position *string) error {
	v := validation.NewValidator()
	if name != nil {
		v.Field("name", name).Required().MaxLength(100)
	}
	v.Field("department", department).MaxLength(100)
	v.Field("position", position).MaxLength(100)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d ChangePasswordDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("currentPassword", d.CurrentPassword).Required()
	v.Field("newPassword", d.NewPassword).Required().MinLength(MinPasswordLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
