package session

import "context"

// Session is the locally held authentication state: an opaque bearer token
// and the display identity shown in the header. Both may be empty.
type Session struct {
	Token    string
	Username string
}

// LoggedIn reports whether a token is held. Token validity is the server's
// call; holding one only means authenticated requests will be attempted.
func (s Session) LoggedIn() bool {
	return s.Token != ""
}

// Store holds the current session. Implementations carry no business logic.
type Store interface {
	Get() Session
	Set(s Session)
	Clear()
}

// Authenticator talks to the remote auth endpoints.
type Authenticator interface {
	Register(ctx context.Context, in RegisterInput) error
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
}

type RegisterInput struct {
	Username        string `validate:"required,min=6"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"eqfield=Password"`
}

type LoginInput struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type LoginResult struct {
	Token    string
	Username string
	Balance  int64
}
