// Package keystore persists the bearer token the API client authenticates
// with. A store holds at most one token at a time; setting overwrites and
// removing is a no-op when nothing is stored.
package keystore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when no token is stored.
	ErrNotFound = errors.New("keystore: no token stored")
	// ErrEmptyToken is returned by Set when the token is empty.
	ErrEmptyToken = errors.New("keystore: token must be non-empty")
)

// Store persists a single bearer token.
type Store interface {
	// Get returns the stored token, or ErrNotFound when absent.
	Get(ctx context.Context) (string, error)
	// Set stores the token, overwriting any previous value.
	Set(ctx context.Context, token string) error
	// Remove deletes the stored token. Removing an absent token succeeds.
	Remove(ctx context.Context) error
}
