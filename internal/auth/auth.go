package auth

import (
	"context"

	"github.com/rs/zerolog"
)

type Role string

const (
	RoleUser   Role = "usuario"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "administrador"
)

var levels = map[Role]int{
	RoleUser:   1,
	RoleEditor: 2,
	RoleAdmin:  3,
}

// Level returns the permission level of r. Unknown roles rank as usuario.
func (r Role) Level() int {
	if level, ok := levels[r]; ok {
		return level
	}
	return levels[RoleUser]
}

// Principal is the logged in user that product management operations are checked against.
// The zero value is an anonymous caller.
type Principal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// Can reports whether p holds at least the required role.
func (p Principal) Can(required Role) bool {
	if !p.Authenticated() {
		return false
	}
	return p.Role.Level() >= required.Level()
}

func (p Principal) MarshalZerologObject(e *zerolog.Event) {
	e.Str("userId", p.UserID).Str("email", p.Email).Str("role", string(p.Role))
}

type principalKey struct{}

func WithPrincipal(c context.Context, p Principal) context.Context {
	return context.WithValue(c, principalKey{}, p)
}

func PrincipalFromContext(c context.Context) Principal {
	if p, ok := c.Value(principalKey{}).(Principal); ok {
		return p
	}
	return Principal{}
}
