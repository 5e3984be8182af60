package capture

import "sync"

// VideoSink receives timestamped frames produced by a capturer. Every
// capturer variant delivers through the same interface; it is the bridge
// to the wrapped media engine.
//
// OnFrame is invoked from an unspecified worker goroutine (capture session
// callback or timer). Implementations must not block for long and must not
// touch caller-owned UI state synchronously.
type VideoSink interface {
	OnFrame(frame *VideoFrame)
}

// SinkFunc adapts a function to the VideoSink interface.
type SinkFunc func(frame *VideoFrame)

func (f SinkFunc) OnFrame(frame *VideoFrame) { f(frame) }

// FrameInterceptor observes or rewrites frames between a capturer and its
// sink. Returning nil drops the frame.
type FrameInterceptor func(frame *VideoFrame) *VideoFrame

// interceptSink applies an interceptor ahead of the wrapped sink.
type interceptSink struct {
	next VideoSink
	fn   FrameInterceptor
}

func (s *interceptSink) OnFrame(frame *VideoFrame) {
	if s.fn != nil {
		frame = s.fn(frame)
		if frame == nil {
			return
		}
	}
	s.next.OnFrame(frame)
}

// wrapSink returns sink unchanged when fn is nil.
func wrapSink(sink VideoSink, fn FrameInterceptor) VideoSink {
	if fn == nil {
		return sink
	}
	return &interceptSink{next: sink, fn: fn}
}

// FanoutSink forwards each frame to every subscribed callback. The default
// media factory pairs one with each local track so both the engine bridge
// and application observers (previews, recorders) can tap the same feed.
type FanoutSink struct {
	mu   sync.RWMutex
	subs []SinkFunc
}

// NewFanoutSink creates an empty fan-out sink.
func NewFanoutSink() *FanoutSink {
	return &FanoutSink{}
}

// Subscribe adds a callback invoked for every subsequent frame.
func (s *FanoutSink) Subscribe(fn SinkFunc) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// OnFrame implements VideoSink.
func (s *FanoutSink) OnFrame(frame *VideoFrame) {
	s.mu.RLock()
	subs := s.subs
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(frame)
	}
}
