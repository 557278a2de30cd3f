package explore

import "errors"

var (
	// ErrInvalidInput: malformed or missing coordinates or image payload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStaleSubmission: an image arrived while none was requested.
	ErrStaleSubmission = errors.New("stale submission: no image requested")
	// ErrNotRunning: a move was requested while exploration is stopped.
	ErrNotRunning = errors.New("robot not running")
	// ErrDetectionUnavailable: the detector failed; callers treat it as no human.
	ErrDetectionUnavailable = errors.New("detection unavailable")
	// ErrPersistence: the snapshot could not be read or written.
	ErrPersistence = errors.New("persistence failure")

	// ErrNoSnapshot is returned by a Store that has nothing saved yet.
	ErrNoSnapshot = errors.New("no snapshot")
	// ErrCorruptSnapshot is returned by a Store whose saved data cannot be decoded.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)
