package dispense

import "errors"

var (
	// ErrDebounced marks a scan dropped inside the cool-down window.
	ErrDebounced = errors.New("scan dropped by debounce guard")

	// ErrNoMachine means the station has no machine configured, so no
	// dispensing or reset action can be issued.
	ErrNoMachine = errors.New("no machine configured for this station")

	// ErrNoActiveOrder is returned by RemoteSync implementations when the
	// backend has no order for this station.
	ErrNoActiveOrder = errors.New("no active order")
)
