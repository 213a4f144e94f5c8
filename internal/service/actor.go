package service

import (
	"github.com/google/uuid"
	"github.com/studymate/studymate-backend/internal/model"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID uuid.UUID
	Role   model.Role
}

// IsAdmin reports whether the actor moderates content.
func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// CanSee reports whether the actor may read a note.
func (a Actor) CanSee(ownerID uuid.UUID, shared bool) bool {
	return a.IsAdmin() || shared || a.UserID == ownerID
}

// CanEdit reports whether the actor may change a note.
func (a Actor) CanEdit(ownerID uuid.UUID) bool {
	return a.IsAdmin() || a.UserID == ownerID
}
