package capture

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pion/logging"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// TrackState represents the lifecycle state of a local video track.
type TrackState int

const (
	TrackStateCreated TrackState = iota // Built, capturer not yet started
	TrackStateStarted                   // Capturer running, frames may arrive
	TrackStateStopped                   // Terminal: resources released
)

func (s TrackState) String() string {
	switch s {
	case TrackStateCreated:
		return "created"
	case TrackStateStarted:
		return "started"
	case TrackStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// TrackSender is the outbound sender whose track Restart swaps.
// *webrtc.RTPSender satisfies it.
type TrackSender interface {
	ReplaceTrack(track webrtc.TrackLocal) error
}

// LocalTrack is the outbound WebRTC track a local video track publishes
// through. It implements webrtc.TrackLocal: add it to a PeerConnection and
// the wrapped engine writes the encoded RTP stream through it.
type LocalTrack struct {
	id       string
	streamID string
	codec    webrtc.RTPCodecCapability
	enabled  atomic.Bool

	bindMu   sync.RWMutex
	bindings []webrtc.TrackLocalContext
}

// NewLocalTrack creates a LocalTrack with the given codec capability.
func NewLocalTrack(codec webrtc.RTPCodecCapability, id, streamID string) *LocalTrack {
	t := &LocalTrack{
		id:       id,
		streamID: streamID,
		codec:    codec,
	}
	t.enabled.Store(true)
	return t
}

func (t *LocalTrack) ID() string       { return t.id }
func (t *LocalTrack) StreamID() string { return t.streamID }
func (t *LocalTrack) RID() string      { return "" }

// Kind implements webrtc.TrackLocal.
func (t *LocalTrack) Kind() webrtc.RTPCodecType { return webrtc.RTPCodecTypeVideo }

// Codec returns the codec capability.
func (t *LocalTrack) Codec() webrtc.RTPCodecCapability { return t.codec }

// Enabled reports whether the track is publishing.
func (t *LocalTrack) Enabled() bool { return t.enabled.Load() }

// SetEnabled toggles publishing. A disabled track drops writes.
func (t *LocalTrack) SetEnabled(enabled bool) { t.enabled.Store(enabled) }

// Bind implements webrtc.TrackLocal.
func (t *LocalTrack) Bind(ctx webrtc.TrackLocalContext) (webrtc.RTPCodecParameters, error) {
	t.bindMu.Lock()
	defer t.bindMu.Unlock()

	t.bindings = append(t.bindings, ctx)

	for _, p := range ctx.CodecParameters() {
		if p.MimeType == t.codec.MimeType {
			return p, nil
		}
	}
	return webrtc.RTPCodecParameters{RTPCodecCapability: t.codec}, nil
}

// Unbind implements webrtc.TrackLocal.
func (t *LocalTrack) Unbind(ctx webrtc.TrackLocalContext) error {
	t.bindMu.Lock()
	defer t.bindMu.Unlock()

	for i, b := range t.bindings {
		if b.ID() == ctx.ID() {
			t.bindings = append(t.bindings[:i], t.bindings[i+1:]...)
			break
		}
	}
	return nil
}

// WriteRTP writes an RTP packet to all bound contexts. Writes on a
// disabled track are dropped without error.
func (t *LocalTrack) WriteRTP(p *rtp.Packet) error {
	if !t.enabled.Load() {
		return nil
	}

	t.bindMu.RLock()
	defer t.bindMu.RUnlock()

	for _, b := range t.bindings {
		if _, err := b.WriteStream().WriteRTP(&p.Header, p.Payload); err != nil {
			return err
		}
	}
	return nil
}

// Write writes raw RTP bytes to all bound contexts.
func (t *LocalTrack) Write(b []byte) (int, error) {
	var p rtp.Packet
	if err := p.Unmarshal(b); err != nil {
		return 0, err
	}
	return len(b), t.WriteRTP(&p)
}

var _ webrtc.TrackLocal = (*LocalTrack)(nil)

// LocalVideoTrack pairs one capturer with an output sink and lifecycle
// control. Exactly one capturer is live at a time; camera tracks can hot
// swap it via Restart without leaving the started state.
type LocalVideoTrack struct {
	id   string
	name string
	kind CapturerKind
	log  logging.LeveledLogger

	mu       sync.Mutex
	state    TrackState
	capturer Capturer
	sink     VideoSink
	out      *LocalTrack
	sender   TrackSender
	factory  MediaFactory

	// Camera-only: retained for restart negotiation.
	provider CameraProvider
	opts     CaptureOptions
}

// ID returns the track's unique identifier.
func (t *LocalVideoTrack) ID() string { return t.id }

// Name returns the caller-supplied track name.
func (t *LocalVideoTrack) Name() string { return t.name }

// Kind reports the capturer variant backing this track.
func (t *LocalVideoTrack) Kind() CapturerKind { return t.kind }

// State returns the current lifecycle state.
func (t *LocalVideoTrack) State() TrackState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Dimensions reports the last negotiated or actually captured frame size.
// It is never stale after a successful start.
func (t *LocalVideoTrack) Dimensions() Dimensions {
	t.mu.Lock()
	capturer := t.capturer
	t.mu.Unlock()
	return capturer.Dimensions()
}

// Options returns the capture options the camera capturer was negotiated
// with. Zero value for non-camera tracks.
func (t *LocalVideoTrack) Options() CaptureOptions {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opts
}

// Sink returns the sink the capturer delivers into.
func (t *LocalVideoTrack) Sink() VideoSink {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sink
}

// Output returns the outbound WebRTC track to hand to AddTrack on a peer
// connection. Restart mints a replacement; use AttachSender so the swap
// reaches the sender.
func (t *LocalVideoTrack) Output() *LocalTrack {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.out
}

// AttachSender records the outbound sender so Restart can atomically swap
// its track. The sender reference is mutated only during restart.
func (t *LocalVideoTrack) AttachSender(sender TrackSender) {
	t.mu.Lock()
	t.sender = sender
	t.mu.Unlock()
}

// Start begins capture. Re-entrant start is a no-op: calling twice without
// an intervening Stop never creates duplicate sessions or timers. A stopped
// track cannot be started again; create a new one.
func (t *LocalVideoTrack) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case TrackStateStarted:
		return nil
	case TrackStateStopped:
		return ErrTrackStopped
	}

	if err := t.capturer.Start(ctx); err != nil {
		return err
	}
	t.state = TrackStateStarted
	t.log.Infof("track %s (%s) started", t.id, t.kind)
	return nil
}

// Stop halts capture and releases the capturer's resources. For camera
// tracks it blocks until the platform acknowledges the session has ceased
// producing frames; only then is the track releasable. Stop on a track
// that is not started is a no-op.
func (t *LocalVideoTrack) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TrackStateStarted {
		return nil
	}

	if err := t.capturer.Stop(); err != nil {
		return err
	}
	t.state = TrackStateStopped
	t.out.SetEnabled(false)
	t.log.Infof("track %s (%s) stopped", t.id, t.kind)
	return nil
}

// Restart swaps the camera capturer in place using new options, without
// leaving the started state. The replacement is fully negotiated and
// started before the old capturer is detached; the old platform session is
// then torn down fire-and-forget, and the outbound sender atomically
// repointed at a fresh factory-minted output track. Any negotiation or start failure
// aborts the restart and leaves the previous capturer intact and running.
//
// Restart is only supported on camera tracks. Callers must serialize
// Restart invocations on a single track; concurrent restarts are not
// guarded internally.
func (t *LocalVideoTrack) Restart(ctx context.Context, opts CaptureOptions) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.kind != KindCamera {
		return fmt.Errorf("restart %s track: %w", t.kind, ErrNotSupported)
	}
	if t.state != TrackStateStarted {
		return ErrTrackStopped
	}

	replacement, dims, err := newCameraCapturer(t.provider, opts, t.sink, t.log)
	if err != nil {
		return err
	}
	if err := replacement.Start(ctx); err != nil {
		return err
	}

	old := t.capturer.(*cameraCapturer)
	oldOut := t.out

	newOut := t.factory.NewTrack(t.sink, uuid.NewString(), t.out.StreamID())
	newOut.SetEnabled(true)

	t.capturer = replacement
	t.opts = opts.withDefaults()
	t.out = newOut

	oldOut.SetEnabled(false)
	old.stopDetached()

	if t.sender != nil {
		if err := t.sender.ReplaceTrack(newOut); err != nil {
			return fmt.Errorf("replace sender track: %w", err)
		}
	}

	t.log.Infof("track %s restarted: %dx%d@%d", t.id, dims.Width, dims.Height, opts.FrameRate)
	return nil
}

// Push supplies an externally produced frame to a buffer track. Other
// kinds return ErrNotSupported.
func (t *LocalVideoTrack) Push(frame *VideoFrame) error {
	t.mu.Lock()
	capturer := t.capturer
	t.mu.Unlock()

	buffer, ok := capturer.(*bufferCapturer)
	if !ok {
		return fmt.Errorf("push on %s track: %w", t.kind, ErrNotSupported)
	}
	buffer.Push(frame)
	return nil
}
