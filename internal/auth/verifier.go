package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MoadE2002/healthcare-sub000/internal/store"
)

// Code classifies why a connection attempt was refused.
type Code string

const (
	CodeMissingToken Code = "missing_token"
	CodeInvalidToken Code = "invalid_token"
	CodeUnknownUser  Code = "unknown_user"
)

// Error is the typed authentication failure surfaced before a notification
// channel connection is accepted.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// UserResolver looks up the account a verified token belongs to.
type UserResolver interface {
	FindByID(ctx context.Context, id string) (*store.User, error)
}

// Verifier validates bearer session tokens and resolves them to users.
type Verifier struct {
	secret []byte
	users  UserResolver
}

func NewVerifier(secret string, users UserResolver) *Verifier {
	return &Verifier{secret: []byte(secret), users: users}
}

// Verify checks the token signature and expiry and resolves the subject claim
// to a user record. All failures are *Error values.
func (v *Verifier) Verify(ctx context.Context, token string) (*store.User, error) {
	if token == "" {
		return nil, &Error{Code: CodeMissingToken}
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, &Error{Code: CodeInvalidToken, Err: err}
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return nil, &Error{Code: CodeInvalidToken, Err: fmt.Errorf("token has no subject")}
	}

	user, err := v.users.FindByID(ctx, sub)
	if err != nil {
		return nil, &Error{Code: CodeUnknownUser, Err: err}
	}
	return user, nil
}
