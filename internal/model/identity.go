package model

import "github.com/google/uuid"

// Identity is the resolved caller of a request. It is built per request by
// the auth middleware and passed explicitly to whatever needs it.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   Role
	Team   *Team
	Name   string
}

// Anonymous reports whether no user was resolved.
func (i Identity) Anonymous() bool {
	return i.UserID == uuid.Nil
}
