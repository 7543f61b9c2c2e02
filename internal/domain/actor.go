package domain

import (
	"slices"

	"github.com/google/uuid"
)

type ActorKind string

const (
	ActorAnonymous ActorKind = "anonymous"
	ActorUser      ActorKind = "user"
	// ActorSystem is an internal caller such as a payment webhook or a background job.
	ActorSystem ActorKind = "system"
)

const (
	RoleAdmin   = "Admin"
	RoleManager = "Manager"
)

// Actor is the caller of a command, threaded explicitly into every
// operation that needs authorization.
type Actor struct {
	Kind   ActorKind
	UserID uuid.UUID
	Roles  []string
}

func Anonymous() Actor {
	return Actor{Kind: ActorAnonymous}
}

func System() Actor {
	return Actor{Kind: ActorSystem}
}

func User(id uuid.UUID, roles ...string) Actor {
	return Actor{Kind: ActorUser, UserID: id, Roles: roles}
}

func (a Actor) IsAuthenticated() bool {
	return a.Kind == ActorUser && a.UserID != uuid.Nil
}

func (a Actor) IsSystem() bool {
	return a.Kind == ActorSystem
}

func (a Actor) IsInRole(role string) bool {
	return a.IsAuthenticated() && slices.Contains(a.Roles, role)
}

// IsPrivileged reports back-office staff: admins and managers.
func (a Actor) IsPrivileged() bool {
	return a.IsInRole(RoleAdmin) || a.IsInRole(RoleManager)
}

func (a Actor) Is(userID uuid.UUID) bool {
	return a.IsAuthenticated() && a.UserID == userID
}

// CanActFor reports whether a may act on resources owned by userID:
// the owner, staff, or the system.
func (a Actor) CanActFor(userID uuid.UUID) bool {
	return a.IsSystem() || a.IsPrivileged() || a.Is(userID)
}

func (a Actor) String() string {
	if a.Kind == ActorUser {
		return "user:" + a.UserID.String()
	}
	return string(a.Kind)
}
