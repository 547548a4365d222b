package studio

import (
	"time"

	"github.com/kaiku-audio/kaiku"
)

type (
	// Broker is the message hub between the model (UI goroutine) and the
	// transport (timing goroutine, or the audio callback when a sequencer
	// drives it). Communication is one channel per recipient; every send from
	// a realtime path goes through TrySend so the timing side can never block
	// on a slow UI.
	//
	// CloseTransport has a capacity of 1 so requesting closure never blocks;
	// a full channel means someone already asked. FinishedTransport is closed
	// by the transport when it has shut down.
	Broker struct {
		ToModel     chan MsgToModel
		ToTransport chan any

		CloseTransport    chan struct{}
		FinishedTransport chan struct{}
	}

	// MsgToModel carries transport status to the model. Position and Playing
	// are passed unboxed because they are sent on every advance; everything
	// infrequent travels boxed in Data.
	MsgToModel struct {
		HasStatus bool
		Position  int
		Playing   bool

		Data any
	}

	// StartPlayMsg starts playback from the given tick.
	StartPlayMsg struct{ Tick int }
	// PauseMsg freezes playback, keeping the position for resume.
	PauseMsg struct{}
	// StopMsg stops playback and resets the position to zero.
	StopMsg struct{}
	// SetPositionMsg scrubs to the given tick without changing play state.
	SetPositionMsg struct{ Tick int }
	// BPMMsg sets the transport tempo.
	BPMMsg struct{ int }
	// TimeSignatureMsg sets the transport meter.
	TimeSignatureMsg struct{ kaiku.TimeSignature }
	// RecordingMsg toggles recording.
	RecordingMsg struct{ bool }
	// NoteOnMsg triggers a note, either from MIDI input or from the UI piano.
	NoteOnMsg struct {
		Track    int
		Key      int
		Velocity int
	}
	// NoteOffMsg releases a note.
	NoteOffMsg struct {
		Track int
		Key   int
	}
)

func NewBroker() *Broker {
	return &Broker{
		ToModel:           make(chan MsgToModel, 1024),
		ToTransport:       make(chan any, 1024),
		CloseTransport:    make(chan struct{}, 1),
		FinishedTransport: make(chan struct{}),
	}
}

// TrySend sends a value to a channel if it has room. Guaranteed non-blocking;
// returns false if the value was dropped.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive blocks until a value arrives or the timeout passes. ok is
// false on timeout or when the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
