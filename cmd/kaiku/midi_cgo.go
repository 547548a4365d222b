//go:build cgo

package main

import (
	"github.com/kaiku-audio/kaiku/studio"
	"github.com/kaiku-audio/kaiku/studio/gomidi"
)

func newMidiContext(broker *studio.Broker) studio.MIDIContext {
	return gomidi.NewContext(broker)
}
