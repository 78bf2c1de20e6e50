package stores

import (
	"context"
	"errors"

	"stickgpt/stickgpt/sources/codec"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrMissingUser       = errors.New("user id is required")
	ErrEmptyKey          = errors.New("memory key cannot be empty")
	ErrInvalidMemoryType = errors.New("invalid memory type")
	ErrInvalidConfidence = errors.New("confidence must be between 0 and 1")
	ErrInvalidRole       = errors.New("invalid message role")
	ErrEmptyChatID       = errors.New("chat id cannot be empty")
)

// Error type labels used in logs and metrics.
const (
	ErrTypeStorage    = "storage"
	ErrTypeCorrupt    = "corrupt"
	ErrTypeNotFound   = "not_found"
	ErrTypeValidation = "validation"
	ErrTypeTimeout    = "timeout"
	ErrTypeUnknown    = "unknown"
)

// ClassifyError groups an error for metrics.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, codec.ErrCorrupt):
		return ErrTypeCorrupt
	case errors.Is(err, ErrNotFound):
		return ErrTypeNotFound
	case errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrMissingUser),
		errors.Is(err, ErrEmptyKey),
		errors.Is(err, ErrInvalidMemoryType),
		errors.Is(err, ErrInvalidConfidence),
		errors.Is(err, ErrInvalidRole),
		errors.Is(err, ErrEmptyChatID):
		return ErrTypeValidation
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrTypeTimeout
	case errors.Is(err, codec.ErrUnavailable):
		return ErrTypeStorage
	}
	return ErrTypeUnknown
}
