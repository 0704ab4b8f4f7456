package main

import "context"

// principal is the authenticated-user marker published by BearerAuth for
// the remainder of request handling. It is set at most once per request,
// before any business handler runs, and is never mutated afterwards.
type principal struct {
	UserID   int64
	Username string
	Role     Role
}

type principalContextKey struct{}

func withPrincipal(ctx context.Context, p principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

func principalFrom(ctx context.Context) (principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(principal)
	return p, ok
}

// CurrentUser lets business handlers ask "who is calling" without
// threading a user parameter through every call. Each request carries its
// own context, so the accessor itself holds no mutable state.
type CurrentUser struct {
	db DB
}

// User returns the full user record for the authenticated principal,
// re-resolved against the directory so a deleted account is caught even
// while its token is still valid.
func (c *CurrentUser) User(ctx context.Context) (*User, error) {
	p, ok := principalFrom(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}
	u, err := c.db.GetUserByUsername(p.Username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &NotFoundError{"User not found with username: " + p.Username}
	}
	return u, nil
}

// UserID returns the authenticated principal's id.
func (c *CurrentUser) UserID(ctx context.Context) (int64, error) {
	u, err := c.User(ctx)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// IsOwner reports whether the authenticated principal owns the resource.
// Callers decide policy; mutating handlers reject with 403 when false.
func (c *CurrentUser) IsOwner(ctx context.Context, ownerID int64) (bool, error) {
	id, err := c.UserID(ctx)
	if err != nil {
		return false, err
	}
	return id == ownerID, nil
}
