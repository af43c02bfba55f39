// Package repository defines the persistence boundary of the reservation
// engine and its two implementations: a MySQL store used in production and an
// in-memory store used by tests and local development.
//
// The sentinel errors below are shared by both implementations so that the
// engine can distinguish expected outcomes from genuine store failures.
package repository

import "errors"

// ErrNotFound is returned when a reservation, table, bill or user does not
// exist. The engine reports it to callers as a NotFound failure.
var ErrNotFound = errors.New("not found")

// ErrDuplicateCode is returned by InsertReservation when the confirmation
// code is already used by another non-terminal reservation. The code minter
// retries with a fresh code.
var ErrDuplicateCode = errors.New("duplicate confirmation code")

// ErrStaleState is returned by conditional updates when the stored row no
// longer has the expected prior status.
var ErrStaleState = errors.New("reservation state changed concurrently")

// ErrDuplicateBill is returned when a bill already exists for a reservation.
var ErrDuplicateBill = errors.New("bill already exists")

// ErrEmailExists is returned when registering an email that is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrReadOnly is returned by writes attempted inside a read-only transaction.
var ErrReadOnly = errors.New("write in read-only transaction")
