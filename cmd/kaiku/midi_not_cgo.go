//go:build !cgo

package main

import (
	"github.com/kaiku-audio/kaiku/studio"
)

func newMidiContext(broker *studio.Broker) studio.MIDIContext {
	// with no cgo there is no rtmidi, so return a null context
	return studio.NullMIDIContext{}
}
