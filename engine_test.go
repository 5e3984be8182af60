package capture

import (
	"sync"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
)

type recordingDelegate struct {
	mu       sync.Mutex
	states   []ConnectionState
	speakers [][]Speaker
	packets  []DataPacket
}

func (d *recordingDelegate) OnStateChanged(old, next ConnectionState) {
	d.mu.Lock()
	d.states = append(d.states, next)
	d.mu.Unlock()
}

func (d *recordingDelegate) OnSpeakersChanged(speakers []Speaker) {
	d.mu.Lock()
	d.speakers = append(d.speakers, speakers)
	d.mu.Unlock()
}

func (d *recordingDelegate) OnTrackAdded(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {}

func (d *recordingDelegate) OnTrackRemoved(track *webrtc.TrackRemote) {}

func (d *recordingDelegate) OnDataPacket(packet DataPacket) {
	d.mu.Lock()
	d.packets = append(d.packets, packet)
	d.mu.Unlock()
}

func TestDelegateQueue_InOrderPerKind(t *testing.T) {
	delegate := &recordingDelegate{}
	q := NewDelegateQueue(delegate)
	defer q.Close()

	transitions := []ConnectionState{
		ConnectionStateConnecting,
		ConnectionStateConnected,
		ConnectionStateReconnecting,
		ConnectionStateConnected,
		ConnectionStateDisconnected,
	}
	prev := ConnectionStateNew
	for _, next := range transitions {
		q.StateChanged(prev, next)
		// Interleave another kind; it must not disturb state ordering.
		q.DataReceived(DataPacket{Payload: []byte{byte(next)}})
		prev = next
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		delegate.mu.Lock()
		done := len(delegate.states) == len(transitions) && len(delegate.packets) == len(transitions)
		delegate.mu.Unlock()
		if done {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	delegate.mu.Lock()
	defer delegate.mu.Unlock()

	if len(delegate.states) != len(transitions) {
		t.Fatalf("delivered %d state events, want %d", len(delegate.states), len(transitions))
	}
	for i, want := range transitions {
		if delegate.states[i] != want {
			t.Errorf("states[%d] = %v, want %v", i, delegate.states[i], want)
		}
	}
	for i := range transitions {
		if delegate.packets[i].Payload[0] != byte(transitions[i]) {
			t.Errorf("packets[%d] out of order", i)
		}
	}
}

func TestDelegateQueue_CloseIdempotent(t *testing.T) {
	q := NewDelegateQueue(&recordingDelegate{})
	q.Close()
	q.Close()

	// Emitting after close must not block or panic.
	q.StateChanged(ConnectionStateNew, ConnectionStateConnecting)
}

func TestConnectionState_String(t *testing.T) {
	tests := []struct {
		state ConnectionState
		want  string
	}{
		{ConnectionStateNew, "new"},
		{ConnectionStateConnecting, "connecting"},
		{ConnectionStateConnected, "connected"},
		{ConnectionStateReconnecting, "reconnecting"},
		{ConnectionStateDisconnected, "disconnected"},
		{ConnectionState(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
