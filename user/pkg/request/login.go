package request

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

type LoginRequest struct {
	Email    string `validate:"required,email" json:"email"`
	Password string `validate:"required"       json:"password"`
}

func (l LoginRequest) MarshalZerologObject(e *zerolog.Event) {
	e.Str("email", l.Email).Str("password", "***")
}

func (l LoginRequest) MarshalJSON() ([]byte, error) {
	l.Password = "***"
	type L LoginRequest
	return json.Marshal(L(l))
}

// Credentials is the body of POST /auth/login. The collaborator calls the email
// "username".
type Credentials struct {
	Username string `validate:"required" json:"username"`
	Password string `validate:"required" json:"password"`
}

func (l LoginRequest) Credentials() Credentials {
	return Credentials{Username: l.Email, Password: l.Password}
}

func (cr Credentials) MarshalZerologObject(e *zerolog.Event) {
	e.Str("username", cr.Username).Str("password", "***")
}
