// Package apperr holds sentinel errors shared across layers. Match them with
// errors.Is.
package apperr

import "errors"

var (
	// ErrNotFound means the requested document or group does not exist.
	ErrNotFound = errors.New("not found")
	// ErrBuildRunning is returned when a build is triggered while another
	// one is in progress.
	ErrBuildRunning = errors.New("build already running")
)
