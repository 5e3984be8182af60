package capture

import "sync"

// CameraDevice describes a camera reported by the platform.
type CameraDevice struct {
	ID       string
	Label    string
	Position CameraPosition
}

// FrameRateRange is one min/max frame-rate span supported by a format.
type FrameRateRange struct {
	Min int
	Max int
}

// CameraFormat describes one capture format supported by a camera device.
type CameraFormat struct {
	Width           int
	Height          int
	FrameRateRanges []FrameRateRange
}

// Dimensions returns the format's frame size.
func (f CameraFormat) Dimensions() Dimensions {
	return Dimensions{Width: f.Width, Height: f.Height}
}

// CameraSession is a live platform camera capture session. It delivers
// frames to the sink it was started with until stopped.
type CameraSession interface {
	// Stop halts the session. The returned channel is closed once the
	// platform confirms it has fully ceased producing frames.
	Stop() <-chan struct{}
}

// CameraProvider is implemented by platform camera backends.
type CameraProvider interface {
	// ListCameras returns available cameras in platform order.
	ListCameras() []CameraDevice

	// Formats returns the capture formats supported by a device.
	Formats(deviceID string) []CameraFormat

	// StartSession begins capture with the negotiated parameters, pushing
	// frames into sink from a platform callback queue.
	StartSession(deviceID string, format CameraFormat, frameRate int, sink VideoSink) (CameraSession, error)
}

// DisplaySession is a live platform display capture session.
type DisplaySession interface {
	// Stop halts the session. The session's capture inputs stay attached
	// and are cleared on the next start; Stop is idempotent.
	Stop()
}

// ScreenProvider is implemented by platform screen/window backends.
type ScreenProvider interface {
	// Displays returns ids of active displays. An empty slice means none.
	Displays() []uint32

	// Windows returns all windows the platform reports, unfiltered.
	Windows() []WindowInfo

	// SnapshotWindow returns the current contents of a window as a BGRA
	// frame without a timestamp, or nil if the window is gone or its
	// snapshot is momentarily unavailable.
	SnapshotWindow(id uint32) *VideoFrame

	// StartDisplay clears any previously attached capture inputs, binds a
	// new input to the display (cursor and clicks included), and begins
	// streaming into sink. It reports the display's pixel geometry.
	StartDisplay(id uint32, sink VideoSink) (DisplaySession, Dimensions, error)

	// MainDisplayDimensions returns the primary display's pixel geometry
	// scaled by the device pixel ratio, or false if unknown.
	MainDisplayDimensions() (Dimensions, bool)
}

// providerRegistry holds the registered platform backends. Platform build
// files register their providers in init(); tests register fakes.
type providerRegistry struct {
	camera CameraProvider
	screen ScreenProvider
	mu     sync.RWMutex
}

var globalProviders = &providerRegistry{}

// RegisterCameraProvider installs the platform camera backend.
func RegisterCameraProvider(p CameraProvider) {
	globalProviders.mu.Lock()
	defer globalProviders.mu.Unlock()
	globalProviders.camera = p
}

// RegisterScreenProvider installs the platform screen backend.
func RegisterScreenProvider(p ScreenProvider) {
	globalProviders.mu.Lock()
	defer globalProviders.mu.Unlock()
	globalProviders.screen = p
}

func getCameraProvider() CameraProvider {
	globalProviders.mu.RLock()
	defer globalProviders.mu.RUnlock()
	return globalProviders.camera
}

func getScreenProvider() ScreenProvider {
	globalProviders.mu.RLock()
	defer globalProviders.mu.RUnlock()
	return globalProviders.screen
}
