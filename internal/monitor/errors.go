package monitor

import "errors"

var (
	// ErrNotFound is returned when an operation references a device id that
	// is not visible in the registry.
	ErrNotFound = errors.New("device not found")

	// ErrNoPendingAlert is returned by the pending-alert operations while the
	// alert workflow is idle.
	ErrNoPendingAlert = errors.New("no pending alert")
)
