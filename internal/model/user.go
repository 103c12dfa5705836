package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is a member's standing in the team. The zero value means no role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCaptain Role = "captain"
	RoleMember  Role = "member"
	RoleNone    Role = ""
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCaptain, RoleMember:
		return true
	}
	return false
}

// CanManageTasks reports whether the role may create, edit, delete tasks
// and toggle completion on behalf of others.
func (r Role) CanManageTasks() bool {
	return r == RoleAdmin || r == RoleCaptain
}

type Profile struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	Username       *string   `gorm:"uniqueIndex" json:"username"`
	HashedPassword string    `gorm:"not null" json:"-"`
	Role           *Role     `json:"role"`
	MemberTeam     *string   `json:"member_team"`
	FirstName      string    `gorm:"not null" json:"first_name"`
	LastName       string    `gorm:"not null" json:"last_name"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// RoleOrNone returns the profile's role, RoleNone when unset.
func (p *Profile) RoleOrNone() Role {
	if p == nil || p.Role == nil || !p.Role.Valid() {
		return RoleNone
	}
	return *p.Role
}

// Team returns the normalized member team.
func (p *Profile) Team() *Team {
	if p == nil || p.MemberTeam == nil {
		return nil
	}
	return NormalizeTeam(*p.MemberTeam)
}

// DisplayName joins first and last name, falling back to the local part of
// the email address.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	full := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	if full != "" {
		return full
	}
	if at := strings.Index(p.Email, "@"); at > 0 {
		return p.Email[:at]
	}
	return ""
}
