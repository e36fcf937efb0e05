package service

import (
	"go-roastery-api/internal/ws"

	"github.com/google/uuid"
)

// Actor is the authenticated caller; the zero value is anonymous
type Actor struct {
	ID    uuid.UUID
	Name  string
	Email string
}

func (a Actor) IsAnonymous() bool {
	return a.ID == uuid.Nil
}

// AuditID is the value stamped into created_by / updated_by
func (a Actor) AuditID() string {
	if a.IsAnonymous() {
		return "anonymous"
	}
	return a.ID.String()
}

func (a Actor) wsActor() *ws.Actor {
	if a.IsAnonymous() {
		return nil
	}
	return &ws.Actor{ID: a.ID.String(), Name: a.Name, Email: a.Email}
}

func (a Actor) displayName() string {
	if a.Name != "" {
		return a.Name
	}
	if a.Email != "" {
		return a.Email
	}
	return "Someone"
}
