package service

import (
	"errors"

	"github.com/djval79/caresync1/internal/state"
)

var (
	ErrShiftNotFound      = errors.New("shift not found")
	ErrStaffNotFound      = errors.New("staff not found")
	ErrClientNotFound     = errors.New("client not found")
	ErrMedicationNotFound = errors.New("medication not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// committed reports whether a Mutate error still left the change in memory
// (only persistence failed).
func committed(err error) bool {
	return err == nil || errors.Is(err, state.ErrPersist)
}
