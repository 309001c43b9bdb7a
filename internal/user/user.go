// Package user holds the account model and the credential store contract.
package user

import (
	"context"
	"net"
	"net/http"
)

// User is the request-scoped identity. It is carried explicitly on the
// request context, never as process-wide state.
type User struct {
	Name  string
	Email string

	anonymous bool
}

// LoggedIn reports whether the user is a real account rather than an
// anonymous placeholder.
func (u *User) LoggedIn() bool { return u != nil && !u.anonymous }

// Anonymous builds the placeholder identity for an unauthenticated request,
// named after the client address.
func Anonymous(r *http.Request) *User {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = h
	}
	return &User{Name: "anonymous@" + host, anonymous: true}
}

// Store is the account backend.
type Store interface {
	// Find loads an account by name, or a not-found failure.
	Find(ctx context.Context, name string) (*User, error)

	// Authenticate verifies credentials and returns the account. Failure is
	// recoverable and deliberately does not say whether the name exists.
	Authenticate(ctx context.Context, name, password string) (*User, error)

	// Create registers a new account.
	Create(ctx context.Context, name, password, email string) (*User, error)

	// ChangePassword replaces the password after verifying the old one.
	ChangePassword(ctx context.Context, name, oldPassword, newPassword string) error

	// UpdateEmail changes the account's email address.
	UpdateEmail(ctx context.Context, name, email string) error
}
