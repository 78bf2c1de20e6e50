// Package kv holds named text entries, the server-side stand-in for browser local storage.
package kv

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by writes when no persistable storage exists.
var ErrUnavailable = errors.New("storage unavailable")

// Storage is a flat namespace of named text entries.
// Get reports ok=false for an absent entry; that is not an error.
type Storage interface {
	Get(ctx context.Context, name string) (value string, ok bool, err error)
	Set(ctx context.Context, name, value string) error
	Remove(ctx context.Context, name string) error
}

// Unavailable stands in for execution contexts with nothing to persist to:
// reads find nothing and writes fail with ErrUnavailable without side effects.
type Unavailable struct{}

func (Unavailable) Get(ctx context.Context, name string) (string, bool, error) {
	return "", false, nil
}

func (Unavailable) Set(ctx context.Context, name, value string) error {
	return ErrUnavailable
}

func (Unavailable) Remove(ctx context.Context, name string) error {
	return ErrUnavailable
}
