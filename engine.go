package capture

import (
	"sync"

	"github.com/pion/webrtc/v4"
)

// ConnectionState is the wrapped engine's connection state as reported to
// the delegate.
type ConnectionState int

const (
	ConnectionStateNew ConnectionState = iota
	ConnectionStateConnecting
	ConnectionStateConnected
	ConnectionStateReconnecting
	ConnectionStateDisconnected
)

func (s ConnectionState) String() string {
	switch s {
	case ConnectionStateNew:
		return "new"
	case ConnectionStateConnecting:
		return "connecting"
	case ConnectionStateConnected:
		return "connected"
	case ConnectionStateReconnecting:
		return "reconnecting"
	case ConnectionStateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Speaker reports one participant's audio activity.
type Speaker struct {
	ParticipantID string
	Level         float32
	Active        bool
}

// DataPacket is an application payload received over the engine's data
// channel.
type DataPacket struct {
	ParticipantID string
	Payload       []byte
}

// EngineDelegate receives engine-level events. All callbacks are invoked
// from an unspecified asynchronous context, at most once per logical
// event, in order within each event kind; there is no ordering guarantee
// across different kinds. Implementations must not block.
type EngineDelegate interface {
	OnStateChanged(old, next ConnectionState)
	OnSpeakersChanged(speakers []Speaker)
	OnTrackAdded(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver)
	OnTrackRemoved(track *webrtc.TrackRemote)
	OnDataPacket(packet DataPacket)
}

// event kinds for delegate dispatch
const (
	eventState = iota
	eventSpeakers
	eventTrackAdded
	eventTrackRemoved
	eventData
	eventKindCount
)

// DelegateQueue serializes delegate delivery per event kind: each kind has
// its own dispatch goroutine, so events of one kind arrive in the order
// they were emitted while kinds proceed independently.
type DelegateQueue struct {
	delegate EngineDelegate
	queues   [eventKindCount]chan func()
	closeOne sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewDelegateQueue wraps a delegate in per-kind ordered dispatch.
func NewDelegateQueue(delegate EngineDelegate) *DelegateQueue {
	q := &DelegateQueue{
		delegate: delegate,
		done:     make(chan struct{}),
	}
	for i := range q.queues {
		q.queues[i] = make(chan func(), 16)
		q.wg.Add(1)
		go q.dispatch(q.queues[i])
	}
	return q
}

func (q *DelegateQueue) dispatch(ch chan func()) {
	defer q.wg.Done()
	for {
		select {
		case <-q.done:
			return
		case fn := <-ch:
			fn()
		}
	}
}

func (q *DelegateQueue) emit(kind int, fn func()) {
	select {
	case <-q.done:
	case q.queues[kind] <- fn:
	}
}

// StateChanged dispatches OnStateChanged.
func (q *DelegateQueue) StateChanged(old, next ConnectionState) {
	q.emit(eventState, func() { q.delegate.OnStateChanged(old, next) })
}

// SpeakersChanged dispatches OnSpeakersChanged.
func (q *DelegateQueue) SpeakersChanged(speakers []Speaker) {
	q.emit(eventSpeakers, func() { q.delegate.OnSpeakersChanged(speakers) })
}

// TrackAdded dispatches OnTrackAdded.
func (q *DelegateQueue) TrackAdded(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
	q.emit(eventTrackAdded, func() { q.delegate.OnTrackAdded(track, receiver) })
}

// TrackRemoved dispatches OnTrackRemoved.
func (q *DelegateQueue) TrackRemoved(track *webrtc.TrackRemote) {
	q.emit(eventTrackRemoved, func() { q.delegate.OnTrackRemoved(track) })
}

// DataReceived dispatches OnDataPacket.
func (q *DelegateQueue) DataReceived(packet DataPacket) {
	q.emit(eventData, func() { q.delegate.OnDataPacket(packet) })
}

// Close stops dispatch. Queued events that have not yet been delivered are
// dropped; Close is idempotent.
func (q *DelegateQueue) Close() {
	q.closeOne.Do(func() { close(q.done) })
	q.wg.Wait()
}
