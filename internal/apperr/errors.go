// Package apperr holds sentinel errors shared across packages.
package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrSetup marks failures that abort a sync run before any note is processed.
	ErrSetup = errors.New("setup failed")
)
