package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pion/logging"
)

// windowCaptureInterval is the fixed polling period for window capture.
const windowCaptureInterval = time.Second / 30

// displayCapturer streams a whole display through a platform capture
// session. The session binds cursor and click capture and reports the
// display's pixel geometry on start.
type displayCapturer struct {
	source   CaptureSource
	provider ScreenProvider
	sink     VideoSink
	log      logging.LeveledLogger

	mu      sync.Mutex
	session DisplaySession
	dims    dimState
}

func newDisplayCapturer(source CaptureSource, provider ScreenProvider, sink VideoSink, log logging.LeveledLogger) *displayCapturer {
	return &displayCapturer{
		source:   source,
		provider: provider,
		sink:     sink,
		log:      log,
	}
}

func (c *displayCapturer) Kind() CapturerKind { return KindDisplay }

func (c *displayCapturer) Dimensions() Dimensions { return c.dims.get() }

// Start binds a capture input to the display and begins the session. A
// disconnected or invalid display id fails with ErrInvalidSource and
// leaves nothing attached.
func (c *displayCapturer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return nil
	}
	if c.provider == nil {
		return fmt.Errorf("display %d: %w", c.source.ID, ErrInvalidSource)
	}

	session, dims, err := c.provider.StartDisplay(c.source.ID, c.sink)
	if err != nil {
		return fmt.Errorf("display %d: %w: %v", c.source.ID, ErrInvalidSource, err)
	}
	c.session = session
	c.dims.set(dims)

	c.log.Debugf("display %d capture started: %dx%d", c.source.ID, dims.Width, dims.Height)
	return nil
}

// Stop halts the session. The platform keeps its inputs attached until the
// next start clears them; repeated stops are no-ops.
func (c *displayCapturer) Stop() error {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.mu.Unlock()

	if session != nil {
		session.Stop()
		c.log.Debugf("display %d capture stopped", c.source.ID)
	}
	return nil
}

// windowCapturer polls a snapshot of a single window at a fixed ~30 Hz
// period. There is no persistent platform session: each tick grabs the
// window's current contents, stamps it with an uptime-derived timestamp,
// and forwards it to the sink. Ticks where the window is gone or its
// snapshot is unavailable are silently skipped; that is expected during
// occlusion or minimization.
type windowCapturer struct {
	source   CaptureSource
	provider ScreenProvider
	sink     VideoSink
	log      logging.LeveledLogger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	dims   dimState
}

func newWindowCapturer(source CaptureSource, provider ScreenProvider, sink VideoSink, log logging.LeveledLogger) *windowCapturer {
	return &windowCapturer{
		source:   source,
		provider: provider,
		sink:     sink,
		log:      log,
	}
}

func (c *windowCapturer) Kind() CapturerKind { return KindWindow }

func (c *windowCapturer) Dimensions() Dimensions { return c.dims.get() }

// Start resumes the polling timer. Starting an already-running capturer is
// a no-op: exactly one timer goroutine exists while running.
func (c *windowCapturer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return nil
	}
	if c.provider == nil {
		return fmt.Errorf("window %d: %w", c.source.ID, ErrInvalidSource)
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.pollLoop(ctx, c.done)

	c.log.Debugf("window %d capture started", c.source.ID)
	return nil
}

// Stop suspends the timer and waits for the polling goroutine to exit, so
// no tick fires after Stop returns. Repeated stops are no-ops.
func (c *windowCapturer) Stop() error {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()
	<-done
	c.log.Debugf("window %d capture stopped", c.source.ID)
	return nil
}

func (c *windowCapturer) pollLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(windowCaptureInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.captureTick()
		}
	}
}

func (c *windowCapturer) captureTick() {
	frame := c.provider.SnapshotWindow(c.source.ID)
	if frame == nil {
		return
	}

	frame.Timestamp = uptimeNanos()
	c.dims.set(frame.Dimensions())
	c.sink.OnFrame(frame)
}
