package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConfiguration indicates missing or broken reference data (e.g. an
// undefined currency type). Runs abort immediately on this.
var ErrConfiguration = errors.New("configuration error")

// ErrLockHeld indicates another run of the same ingestion type is active.
// Commands map this to their own exit code instead of treating it as a failure.
var ErrLockHeld = errors.New("another run is in progress")
