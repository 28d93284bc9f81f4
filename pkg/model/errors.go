package model

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrMemoryNotFound  = goerr.New("memory not found")
	ErrInvalidArgument = goerr.New("invalid argument")
	ErrCreateFailed    = goerr.New("failed to create memory")
	ErrUpdateFailed    = goerr.New("failed to update memory")
	ErrDeleteFailed    = goerr.New("failed to delete memory")
	ErrInternal        = goerr.New("internal error")
)

// Stable kind names exposed in batch failure entries and CLI output.
const (
	KindNotFound        = "not_found"
	KindInvalidArgument = "invalid_argument"
	KindCreateFailed    = "create_failed"
	KindUpdateFailed    = "update_failed"
	KindDeleteFailed    = "delete_failed"
	KindInternal        = "internal_error"
)

// ErrorKind maps an error to its kind name. Unknown errors are
// reported as internal.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrMemoryNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrCreateFailed):
		return KindCreateFailed
	case errors.Is(err, ErrUpdateFailed):
		return KindUpdateFailed
	case errors.Is(err, ErrDeleteFailed):
		return KindDeleteFailed
	default:
		return KindInternal
	}
}

// maxCauseLen bounds store error messages carried for diagnostics.
const maxCauseLen = 256

// TruncateMessage shortens excessively long error text so a failing
// store cannot blow up logs or batch results.
func TruncateMessage(msg string) string {
	if len(msg) <= maxCauseLen {
		return msg
	}
	return msg[:maxCauseLen] + "...(truncated)"
}
