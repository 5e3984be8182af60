package capture

import (
	"sync"
	"testing"
)

// Test fixtures: fake platform providers and sinks. The global provider
// registry is swapped per test and restored on cleanup.

type collectSink struct {
	mu     sync.Mutex
	frames []*VideoFrame
}

func (s *collectSink) OnFrame(frame *VideoFrame) {
	s.mu.Lock()
	s.frames = append(s.frames, frame)
	s.mu.Unlock()
}

func (s *collectSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *collectSink) last() *VideoFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// fakeCameraSession acknowledges Stop either automatically or when the
// test releases it.
type fakeCameraSession struct {
	sink VideoSink
	auto bool

	mu        sync.Mutex
	stopCalls int
	ack       chan struct{}
	acked     bool
}

func (s *fakeCameraSession) Stop() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCalls++
	if s.auto && !s.acked {
		s.acked = true
		close(s.ack)
	}
	return s.ack
}

func (s *fakeCameraSession) releaseAck() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.acked {
		s.acked = true
		close(s.ack)
	}
}

func (s *fakeCameraSession) stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopCalls > 0
}

func (s *fakeCameraSession) emit(frame *VideoFrame) {
	s.sink.OnFrame(frame)
}

type fakeCameraProvider struct {
	devices  []CameraDevice
	formats  map[string][]CameraFormat
	autoAck  bool
	startErr error

	mu       sync.Mutex
	sessions []*fakeCameraSession
}

func (p *fakeCameraProvider) ListCameras() []CameraDevice { return p.devices }

func (p *fakeCameraProvider) Formats(deviceID string) []CameraFormat {
	return p.formats[deviceID]
}

func (p *fakeCameraProvider) StartSession(deviceID string, format CameraFormat, frameRate int, sink VideoSink) (CameraSession, error) {
	if p.startErr != nil {
		return nil, p.startErr
	}
	session := &fakeCameraSession{
		sink: sink,
		auto: p.autoAck,
		ack:  make(chan struct{}),
	}
	p.mu.Lock()
	p.sessions = append(p.sessions, session)
	p.mu.Unlock()
	return session, nil
}

func (p *fakeCameraProvider) sessionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

func (p *fakeCameraProvider) session(i int) *fakeCameraSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions[i]
}

type fakeDisplaySession struct {
	mu        sync.Mutex
	stopCalls int
}

func (s *fakeDisplaySession) Stop() {
	s.mu.Lock()
	s.stopCalls++
	s.mu.Unlock()
}

type fakeScreenProvider struct {
	displays    []uint32
	windows     []WindowInfo
	displayDims Dimensions
	mainDims    Dimensions
	hasMainDims bool
	startErr    error

	mu            sync.Mutex
	snapshot      *VideoFrame
	snapshotCalls int
	sessions      []*fakeDisplaySession
}

func (p *fakeScreenProvider) Displays() []uint32 { return p.displays }

func (p *fakeScreenProvider) Windows() []WindowInfo { return p.windows }

func (p *fakeScreenProvider) SnapshotWindow(id uint32) *VideoFrame {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshotCalls++
	if p.snapshot == nil {
		return nil
	}
	return p.snapshot.Clone()
}

func (p *fakeScreenProvider) setSnapshot(frame *VideoFrame) {
	p.mu.Lock()
	p.snapshot = frame
	p.mu.Unlock()
}

func (p *fakeScreenProvider) snapshots() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotCalls
}

func (p *fakeScreenProvider) StartDisplay(id uint32, sink VideoSink) (DisplaySession, Dimensions, error) {
	if p.startErr != nil {
		return nil, Dimensions{}, p.startErr
	}
	session := &fakeDisplaySession{}
	p.mu.Lock()
	p.sessions = append(p.sessions, session)
	p.mu.Unlock()
	return session, p.displayDims, nil
}

func (p *fakeScreenProvider) sessionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

func (p *fakeScreenProvider) MainDisplayDimensions() (Dimensions, bool) {
	return p.mainDims, p.hasMainDims
}

func useCameraProvider(t *testing.T, p CameraProvider) {
	t.Helper()
	prev := getCameraProvider()
	RegisterCameraProvider(p)
	t.Cleanup(func() { RegisterCameraProvider(prev) })
}

func useScreenProvider(t *testing.T, p ScreenProvider) {
	t.Helper()
	prev := getScreenProvider()
	RegisterScreenProvider(p)
	t.Cleanup(func() { RegisterScreenProvider(prev) })
}

func useMediaFactory(t *testing.T, f MediaFactory) {
	t.Helper()
	prev := getMediaFactory()
	RegisterMediaFactory(f)
	t.Cleanup(func() { RegisterMediaFactory(prev) })
}

// testFrame builds a small BGRA frame of the given size.
func testFrame(width, height int) *VideoFrame {
	return BGRAFrame(make([]byte, width*height*4), width, height, 0)
}
