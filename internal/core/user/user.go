package user

import "time"

type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleAdmin
}

type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	Department   string
	Position     string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Caller is the authenticated identity attached to a request.
type Caller struct {
	ID   int64
	Role Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// Profile is the public view of a user; it never carries the password hash.
type Profile struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	Department string    `json:"department,omitempty"`
	Position   string    `json:"position,omitempty"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
		Position:   u.Position,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
	}
}

func (u *User) Caller() Caller {
	return Caller{ID: u.ID, Role: u.Role}
}
