package capture

import (
	"context"
	"sync"
	"time"
)

// CapturerKind identifies a capturer variant.
type CapturerKind int

const (
	KindCamera CapturerKind = iota
	KindDisplay
	KindWindow
	KindBuffer
)

func (k CapturerKind) String() string {
	switch k {
	case KindCamera:
		return "camera"
	case KindDisplay:
		return "display"
	case KindWindow:
		return "window"
	case KindBuffer:
		return "buffer"
	default:
		return "unknown"
	}
}

// Capturer owns a platform capture resource and produces timestamped frames
// into the sink it was constructed with. A capturer is either fully stopped
// (no resources held, no frames produced) or fully running; no partial
// state is observable outside a start/stop transition.
type Capturer interface {
	// Start acquires platform resources and begins frame production.
	// Starting an already-running capturer is a no-op.
	Start(ctx context.Context) error

	// Stop halts frame production and releases resources. For camera
	// capturers it blocks until the platform acknowledges the session has
	// fully ceased producing frames. Stop is idempotent.
	Stop() error

	// Kind reports the capturer variant.
	Kind() CapturerKind

	// Dimensions reports the last negotiated or actually captured frame
	// size; zero until one is known.
	Dimensions() Dimensions
}

// dimState is the shared mutable dimensions slot capturers update as actual
// frame geometry becomes known.
type dimState struct {
	mu   sync.RWMutex
	dims Dimensions
}

func (d *dimState) get() Dimensions {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dims
}

func (d *dimState) set(dims Dimensions) {
	d.mu.Lock()
	d.dims = dims
	d.mu.Unlock()
}

// uptimeNanos yields monotonic capture timestamps measured from process
// start, mirroring the platform's uptime-derived clock.
var processStart = time.Now()

func uptimeNanos() int64 {
	return time.Since(processStart).Nanoseconds()
}
