// Package devserver is a local stand-in for the production auth service. It
// speaks the same wire contract the client consumes, so the SDK and the
// screens on top of it can be exercised without network access.
package devserver

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrUserNotFound is returned when no account matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned by Create when the email is already registered.
	ErrEmailTaken = errors.New("email has already been taken")
)

// User is an account record as the dev server stores it.
type User struct {
	ID           int64
	Email        string
	FirstName    string
	LastName     string
	Phone        string
	CountryCode  string
	PasswordHash []byte
	CreatedAt    time.Time
}

// FullName joins first and last name, tolerating blanks.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// FullPhone is the dialable number including the country code.
func (u User) FullPhone() string {
	if u.Phone == "" {
		return ""
	}
	return u.CountryCode + u.Phone
}

// Repository persists accounts. IDs are assigned by the store on Create.
type Repository interface {
	Create(ctx context.Context, user User) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	UpdatePassword(ctx context.Context, id int64, hash []byte) error
}
