package response

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/auth"
)

type User struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      auth.Role  `json:"role"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Principal is the authorization context of the logged in user.
func (u User) Principal() auth.Principal {
	return auth.Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func (u User) MarshalZerologObject(e *zerolog.Event) {
	e.Str("id", u.ID).Str("email", u.Email).Str("role", string(u.Role))
}
