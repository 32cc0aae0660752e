// Package repository defines the data access layer and the sentinel
// errors shared across its repositories.  Handlers match on these with
// errors.Is to translate failures into distinct HTTP responses: a
// missing record is not the same as a bed lost to a concurrent
// request, and neither is an authorization failure.
package repository

import "errors"

// ErrUserNotFound is returned when a user id or email resolves to no row.
var ErrUserNotFound = errors.New("user not found")

// ErrRoomNotFound is returned when a room id or label resolves to no
// row.  During draft creation this is the resolution error: the flow
// aborts and no record is created.
var ErrRoomNotFound = errors.New("room not found")

// ErrBedNotFound is returned when a bed id resolves to no row.
var ErrBedNotFound = errors.New("bed not found")

// ErrBedUnavailable is returned when a conditional bed-status update
// matched no row, meaning the bed was taken (or released) by a
// concurrent request between read and write.
var ErrBedUnavailable = errors.New("bed unavailable")

// ErrReservationNotFound is returned when a reservation id resolves to
// no row.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrConflict is returned when a status change is not permitted from
// the record's current state, such as confirming a cancelled
// reservation.  Handlers should translate this into HTTP 409.
var ErrConflict = errors.New("conflict")
