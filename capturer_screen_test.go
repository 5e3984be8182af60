package capture

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDisplayCapturer_StartStop(t *testing.T) {
	provider := &fakeScreenProvider{
		displays:    []uint32{1},
		displayDims: Dimensions{Width: 2560, Height: 1440},
	}
	sink := &collectSink{}
	c := newDisplayCapturer(DisplaySource(1), provider, sink, newLogger("test"))

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := c.Dimensions(); got != (Dimensions{Width: 2560, Height: 1440}) {
		t.Errorf("Dimensions = %v, want display geometry", got)
	}

	// Re-entrant start must not create a second session.
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if got := provider.sessionCount(); got != 1 {
		t.Errorf("sessions = %d, want 1", got)
	}

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	// Stop is idempotent.
	if err := c.Stop(); err != nil {
		t.Fatalf("repeated Stop failed: %v", err)
	}
}

func TestDisplayCapturer_InvalidDisplay(t *testing.T) {
	provider := &fakeScreenProvider{startErr: errors.New("display disconnected")}
	c := newDisplayCapturer(DisplaySource(9), provider, &collectSink{}, newLogger("test"))

	err := c.Start(context.Background())
	if !errors.Is(err, ErrInvalidSource) {
		t.Errorf("Start error = %v, want ErrInvalidSource", err)
	}
	// The platform's reason stays visible alongside the sentinel.
	if !strings.Contains(err.Error(), "display disconnected") {
		t.Errorf("Start error %q does not retain the platform cause", err)
	}
	if provider.sessionCount() != 0 {
		t.Error("failed start left a session attached")
	}
}

func TestWindowCapturer_SkipsUnavailableTicks(t *testing.T) {
	provider := &fakeScreenProvider{}
	sink := &collectSink{}
	c := newWindowCapturer(WindowSource(100), provider, sink, newLogger("test"))

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer c.Stop()

	// Snapshot unavailable: ticks fire but no frames are emitted.
	time.Sleep(4 * windowCaptureInterval)
	if provider.snapshots() == 0 {
		t.Fatal("no snapshot attempts while snapshot unavailable")
	}
	if got := sink.count(); got != 0 {
		t.Errorf("frames emitted while snapshot unavailable: %d", got)
	}

	// Window becomes available again: subsequent ticks emit normally.
	provider.setSnapshot(testFrame(800, 600))
	deadline := time.Now().Add(time.Second)
	for sink.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(windowCaptureInterval)
	}
	if sink.count() == 0 {
		t.Fatal("no frames after snapshot became available")
	}

	frame := sink.last()
	if frame.Timestamp == 0 {
		t.Error("emitted frame missing timestamp")
	}
	if got := c.Dimensions(); got != (Dimensions{Width: 800, Height: 600}) {
		t.Errorf("Dimensions = %v, want 800x600 from snapshot", got)
	}
}

func TestWindowCapturer_StopSuspendsTicks(t *testing.T) {
	provider := &fakeScreenProvider{}
	provider.setSnapshot(testFrame(320, 240))
	sink := &collectSink{}
	c := newWindowCapturer(WindowSource(100), provider, sink, newLogger("test"))

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	// Re-entrant start keeps a single timer.
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}

	time.Sleep(4 * windowCaptureInterval)
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	// No ticks leak while suspended.
	calls := provider.snapshots()
	time.Sleep(4 * windowCaptureInterval)
	if got := provider.snapshots(); got != calls {
		t.Errorf("snapshot attempts after Stop: %d -> %d", calls, got)
	}

	// Stop is idempotent.
	if err := c.Stop(); err != nil {
		t.Fatalf("repeated Stop failed: %v", err)
	}
}
