package internal

import (
	"context"
)

// Role is resolved exactly once at authentication time and carried through
// the request context. Endpoints never trust a client-supplied role tag.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Actor is the authenticated principal plus its resolved role record.
// RoleID is the id of the employee/manager/admin row, not the users row.
type Actor struct {
	UserID int64  `json:"user_id"`
	Role   Role   `json:"role"`
	RoleID int64  `json:"role_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

func (a *Actor) IsEmployee() bool { return a.Role == RoleEmployee }
func (a *Actor) IsManager() bool  { return a.Role == RoleManager }
func (a *Actor) IsAdmin() bool    { return a.Role == RoleAdmin }

type ctxKey string

const ContextActorKey ctxKey = "actor"

func ActorFromContext(ctx context.Context) (*Actor, bool) {
	if ctx == nil {
		return nil, false
	}
	actor, ok := ctx.Value(ContextActorKey).(*Actor)
	return actor, ok
}

func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, ContextActorKey, actor)
}
