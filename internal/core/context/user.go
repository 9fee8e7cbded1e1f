// Package context carries the authenticated user and the trace ids of a request.
package context

import (
	"context"
	"slices"
	"strings"
)

// Action is the verb part of a permission such as "employee:read".
type Action string

const (
	ActionRead    Action = "read"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionExport  Action = "export"
	ActionCheckIn Action = "checkin"

	// ActionAny in a granted permission covers every action on the entity
	ActionAny Action = "*"
)

// Permission returns the permission name for action on entity.
func Permission(entity string, action Action) string {
	return entity + ":" + string(action)
}

// UserContext is the caller as described by the access token.
type UserContext struct {
	UserID      string
	Email       string
	Roles       []string
	Permissions []string
	IsAdmin     bool
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns the user id from context or "" for anonymous calls.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// HasPermission reports whether u holds permission, directly or through an
// "<entity>:*" grant. Admins hold every permission.
func (u *UserContext) HasPermission(permission string) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin || slices.Contains(u.Permissions, permission) {
		return true
	}
	entity, _, ok := strings.Cut(permission, ":")
	return ok && slices.Contains(u.Permissions, Permission(entity, ActionAny))
}
