package capture

import (
	"errors"
	"fmt"
)

// ErrNotSupported is returned when an optional operation is not supported.
var ErrNotSupported = errors.New("operation not supported")

// ErrNoDevice is returned when no camera matches the requested position.
var ErrNoDevice = errors.New("no matching capture device")

// ErrInvalidSource is returned when a display or window id is no longer
// valid at start time (disconnected display, closed window).
var ErrInvalidSource = errors.New("invalid capture source")

// ErrAlreadyRunning is returned when the platform reports a capture session
// that cannot be restarted in place.
var ErrAlreadyRunning = errors.New("capture session already running")

// ErrTrackStopped is returned when an operation is attempted on a track
// whose resources have already been released.
var ErrTrackStopped = errors.New("track is stopped")

// UnsupportedFrameRateError reports a requested frame rate outside the
// bounds supported by the negotiated camera format.
type UnsupportedFrameRateError struct {
	Requested int
	Min, Max  int
}

func (e *UnsupportedFrameRateError) Error() string {
	return fmt.Sprintf("frame rate %d outside supported range [%d, %d]", e.Requested, e.Min, e.Max)
}
