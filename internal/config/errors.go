package config

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSetting indicates a path that names no setting.
	ErrUnknownSetting = errors.New("unknown setting")

	// ErrTypeMismatch indicates a value of the wrong type for its setting.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidSetting indicates a value outside its allowed range.
	ErrInvalidSetting = errors.New("invalid setting")
)

// ValidationError names the setting that failed validation.
type ValidationError struct {
	Path   string
	Value  any
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s = %v: %s", e.Path, e.Value, e.Reason)
}

// Unwrap makes ValidationError match ErrInvalidSetting.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidSetting
}

func invalid(path string, value any, reason string) error {
	return &ValidationError{Path: path, Value: value, Reason: reason}
}

func mismatch(want string, got any) error {
	return fmt.Errorf("%w: want %s, got %T", ErrTypeMismatch, want, got)
}
