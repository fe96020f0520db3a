package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by someone else. Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete cannot proceed because
// dependent records exist, such as removing a trip that still has
// reservations. Handlers translate this into 409.
var ErrConflict = errors.New("conflict")
