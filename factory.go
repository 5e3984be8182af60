package capture

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"
)

// MediaFactory supplies the engine-side primitives a local track wires
// together: the sink capturers deliver into, and the outbound track the
// engine publishes through. The capture core never constructs these on its
// own terms; it asks the factory and wires the results.
type MediaFactory interface {
	// NewSink returns the frame sink for a track.
	NewSink(trackID string) VideoSink

	// NewTrack returns the outbound WebRTC track bound to a sink.
	NewTrack(sink VideoSink, trackID, streamID string) *LocalTrack
}

// defaultMediaFactory pairs each track with a fan-out sink and a VP8
// LocalTrack. The wrapped engine (or tests) subscribe to the sink.
type defaultMediaFactory struct{}

func (defaultMediaFactory) NewSink(trackID string) VideoSink {
	return NewFanoutSink()
}

func (defaultMediaFactory) NewTrack(sink VideoSink, trackID, streamID string) *LocalTrack {
	codec := webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000}
	return NewLocalTrack(codec, trackID, streamID)
}

var (
	factoryMu     sync.RWMutex
	mediaFactory  MediaFactory = defaultMediaFactory{}
	loggerFactory logging.LoggerFactory
)

// RegisterMediaFactory installs the factory used by the Create* operations.
// The wrapped engine registers its own implementation; a built-in fan-out
// factory is used until then.
func RegisterMediaFactory(f MediaFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	mediaFactory = f
}

// SetLoggerFactory installs the pion logging factory used for all capture
// loggers. The default factory honors the PION_LOG_* environment variables.
func SetLoggerFactory(f logging.LoggerFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	loggerFactory = f
}

func getMediaFactory() MediaFactory {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	return mediaFactory
}

func newLogger(scope string) logging.LeveledLogger {
	factoryMu.RLock()
	f := loggerFactory
	factoryMu.RUnlock()

	if f == nil {
		f = logging.NewDefaultLoggerFactory()
	}
	return f.NewLogger(scope)
}

// CreateCameraTrack builds a camera track: it negotiates device, format,
// and frame rate against the registered camera provider and wires the
// capturer to a factory-minted sink. Capture does not begin until Start.
// The optional interceptor observes or rewrites frames ahead of the sink.
func CreateCameraTrack(opts CaptureOptions, interceptor FrameInterceptor) (*LocalVideoTrack, error) {
	id := uuid.NewString()
	streamID := uuid.NewString()
	log := newLogger("capture")

	factory := getMediaFactory()
	sink := wrapSink(factory.NewSink(id), interceptor)

	provider := getCameraProvider()
	capturer, _, err := newCameraCapturer(provider, opts, sink, log)
	if err != nil {
		return nil, err
	}

	return &LocalVideoTrack{
		id:       id,
		name:     "camera",
		kind:     KindCamera,
		log:      log,
		state:    TrackStateCreated,
		capturer: capturer,
		sink:     sink,
		out:      factory.NewTrack(sink, id, streamID),
		factory:  factory,
		provider: provider,
		opts:     opts.withDefaults(),
	}, nil
}

// CreateBufferTrack builds a push-driven track with no physical device.
// Feed it frames with Push; dimensions default to the main display's
// pixel geometry until a real frame supersedes them.
func CreateBufferTrack(name string) *LocalVideoTrack {
	id := uuid.NewString()
	log := newLogger("capture")

	factory := getMediaFactory()
	sink := factory.NewSink(id)

	return &LocalVideoTrack{
		id:       id,
		name:     name,
		kind:     KindBuffer,
		log:      log,
		state:    TrackStateCreated,
		capturer: newBufferCapturer(name, sink, getScreenProvider(), log),
		sink:     sink,
		out:      factory.NewTrack(sink, id, uuid.NewString()),
		factory:  factory,
	}
}

// CreateScreenShareTrack builds a screen-share track for the given source,
// defaulting to the main display when none is supplied. A source that is
// no longer valid is detected at Start, which fails with ErrInvalidSource.
func CreateScreenShareTrack(source ...CaptureSource) *LocalVideoTrack {
	src := mainDisplay()
	if len(source) > 0 {
		src = source[0]
	}

	id := uuid.NewString()
	log := newLogger("capture")

	factory := getMediaFactory()
	sink := factory.NewSink(id)
	provider := getScreenProvider()

	var capturer Capturer
	if src.Kind == SourceKindWindow {
		capturer = newWindowCapturer(src, provider, sink, log)
	} else {
		capturer = newDisplayCapturer(src, provider, sink, log)
	}

	return &LocalVideoTrack{
		id:       id,
		name:     "screen",
		kind:     capturer.Kind(),
		log:      log,
		state:    TrackStateCreated,
		capturer: capturer,
		sink:     sink,
		out:      factory.NewTrack(sink, id, uuid.NewString()),
		factory:  factory,
	}
}

// mainDisplay returns the first enumerated display, or the zero display id
// when none is active (Start will then report ErrInvalidSource).
func mainDisplay() CaptureSource {
	if displays := Displays(); len(displays) > 0 {
		return displays[0]
	}
	return DisplaySource(0)
}
