package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Error classes returned by the reward engine. Callers match with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrForbidden       = errors.New("forbidden")
	ErrUnavailable     = errors.New("store unavailable")
)

// maxIDLen bounds opaque identifiers handed in by the upstream services.
const maxIDLen = 64

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// storeErr classifies a storage failure as Unavailable while keeping the cause.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrForbidden) || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

func validateID(name, id string) error {
	if id == "" {
		return invalidf("%s is required", name)
	}
	if len(id) > maxIDLen {
		return invalidf("%s is longer than %d characters", name, maxIDLen)
	}
	if strings.IndexFunc(id, unicode.IsSpace) >= 0 {
		return invalidf("%s must not contain whitespace", name)
	}
	return nil
}
