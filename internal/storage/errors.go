package storage

import "errors"

var (
	ErrActiveSessionConflict = errors.New("user already has an open work session")
	ErrSessionNotFound       = errors.New("work session not found")
	ErrSessionAlreadyEnded   = errors.New("work session already ended")
	ErrMachineUnavailable    = errors.New("machine is unavailable")
	ErrMachineNotFound       = errors.New("machine not found")
	ErrTaskNotFound          = errors.New("task not found")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderNotIssuable      = errors.New("order is not ready to be issued")
	ErrShiftNotFound         = errors.New("shift not found")
	ErrShiftNotDeletable     = errors.New("shift cannot be deleted")
	ErrLunchAlreadyStarted   = errors.New("lunch already started")
	ErrLunchNotStarted       = errors.New("lunch not started")
	ErrLunchAlreadyEnded     = errors.New("lunch already ended")
	ErrInsufficientStock     = errors.New("insufficient material stock")
	ErrInvalidClockPoint     = errors.New("unknown clock point")
	ErrValidation            = errors.New("validation failed")
)
