package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/pion/logging"
)

// cameraCapturer drives a platform camera session with a negotiated device,
// format, and frame rate. Format negotiation happens once at construction;
// a new capturer is built for every restart.
type cameraCapturer struct {
	provider  CameraProvider
	device    CameraDevice
	format    CameraFormat
	frameRate int
	sink      VideoSink
	log       logging.LeveledLogger

	mu      sync.Mutex
	session CameraSession
}

// newCameraCapturer negotiates options against the provider and returns a
// stopped capturer plus the negotiated dimensions. No platform capture
// state is touched until Start.
func newCameraCapturer(provider CameraProvider, opts CaptureOptions, sink VideoSink, log logging.LeveledLogger) (*cameraCapturer, Dimensions, error) {
	opts = opts.withDefaults()

	device, format, err := negotiate(provider, opts)
	if err != nil {
		return nil, Dimensions{}, err
	}

	c := &cameraCapturer{
		provider:  provider,
		device:    device,
		format:    format,
		frameRate: opts.FrameRate,
		sink:      sink,
		log:       log,
	}
	return c, format.Dimensions(), nil
}

func (c *cameraCapturer) Kind() CapturerKind { return KindCamera }

func (c *cameraCapturer) Dimensions() Dimensions { return c.format.Dimensions() }

// Start begins the platform session. Re-entrant start is a no-op unless the
// platform itself reports a session that cannot be cleared.
func (c *cameraCapturer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return nil
	}

	session, err := c.provider.StartSession(c.device.ID, c.format, c.frameRate, c.sink)
	if err != nil {
		return fmt.Errorf("start camera %s: %w", c.device.ID, err)
	}
	c.session = session

	c.log.Debugf("camera %s started: %dx%d@%d", c.device.ID, c.format.Width, c.format.Height, c.frameRate)
	return nil
}

// Stop halts the session and blocks until the platform acknowledges it has
// fully ceased producing frames. The capturer is not releasable before the
// acknowledgment arrives.
func (c *cameraCapturer) Stop() error {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.mu.Unlock()

	if session == nil {
		return nil
	}

	<-session.Stop()
	c.log.Debugf("camera %s stopped", c.device.ID)
	return nil
}

// stopDetached tears the session down without awaiting the platform
// acknowledgment. Restart uses it so the swap to the replacement capturer
// is not gated on the old session's teardown.
func (c *cameraCapturer) stopDetached() {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.mu.Unlock()

	if session == nil {
		return
	}

	done := session.Stop()
	go func() {
		<-done
		c.log.Debugf("camera %s stopped (detached)", c.device.ID)
	}()
}
