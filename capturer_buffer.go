package capture

import (
	"context"
	"sync/atomic"

	"github.com/pion/logging"
)

// bufferCapturer wraps a caller-driven push interface: frames are supplied
// externally (screen mirroring extensions, renderers) rather than pulled
// from a device. Dimensions default to the main display's pixel geometry
// when the platform reports one and are superseded by the first real frame.
type bufferCapturer struct {
	name    string
	sink    VideoSink
	log     logging.LeveledLogger
	running atomic.Bool
	dims    dimState
}

func newBufferCapturer(name string, sink VideoSink, provider ScreenProvider, log logging.LeveledLogger) *bufferCapturer {
	c := &bufferCapturer{
		name: name,
		sink: sink,
		log:  log,
	}
	if provider != nil {
		if dims, ok := provider.MainDisplayDimensions(); ok {
			c.dims.set(dims)
		}
	}
	return c
}

func (c *bufferCapturer) Kind() CapturerKind { return KindBuffer }

func (c *bufferCapturer) Dimensions() Dimensions { return c.dims.get() }

// Start enables frame acceptance. There are no platform resources to
// acquire; starting twice is a no-op.
func (c *bufferCapturer) Start(ctx context.Context) error {
	c.running.Store(true)
	return nil
}

// Stop disables frame acceptance. Pushes after Stop are dropped.
func (c *bufferCapturer) Stop() error {
	c.running.Store(false)
	return nil
}

// Push forwards an externally produced frame to the sink, stamping it with
// an uptime-derived timestamp when the caller left it unset. The caller's
// frame is never mutated; stamping happens on a shallow copy sharing the
// pixel data. Frames pushed while the capturer is stopped are dropped.
func (c *bufferCapturer) Push(frame *VideoFrame) {
	if !c.running.Load() {
		return
	}

	if frame.Timestamp == 0 {
		stamped := *frame
		stamped.Timestamp = uptimeNanos()
		frame = &stamped
	}
	c.dims.set(frame.Dimensions())
	c.sink.OnFrame(frame)
}
