package gomidi

import (
	"errors"
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/kaiku-audio/kaiku/studio"
)

type (
	RTMIDIContext struct {
		driver             *rtmididrv.Driver
		currentIn          drivers.In
		stopListen         func()
		inputDevices       []RTMIDIDevice
		devicesInitialized bool
		broker             *studio.Broker
	}

	RTMIDIDevice struct {
		context *RTMIDIContext
		in      drivers.In
	}
)

// NewContext opens the rtmidi driver. A nil driver just means no MIDI; the
// context still works, it yields no devices.
func NewContext(broker *studio.Broker) *RTMIDIContext {
	c := RTMIDIContext{broker: broker}
	c.driver, _ = rtmididrv.New()
	return &c
}

func (c *RTMIDIContext) InputDevices(yield func(studio.MIDIDevice) bool) {
	if c.devicesInitialized {
		for _, device := range c.inputDevices {
			if !yield(device) {
				break
			}
		}
		return
	}
	if c.driver == nil {
		return
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return
	}
	for _, in := range ins {
		device := RTMIDIDevice{context: c, in: in}
		c.inputDevices = append(c.inputDevices, device)
		if !yield(device) {
			break
		}
	}
	c.devicesInitialized = true
}

// Open starts listening to the device, closing the currently open one if
// necessary.
func (d RTMIDIDevice) Open() error {
	c := d.context
	if c.currentIn == d.in {
		return nil
	}
	if c.driver == nil {
		return errors.New("no driver available")
	}
	if c.HasDeviceOpen() {
		if c.stopListen != nil {
			c.stopListen()
			c.stopListen = nil
		}
		c.currentIn.Close()
	}
	c.currentIn = d.in
	if err := d.in.Open(); err != nil {
		c.currentIn = nil
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	stop, err := midi.ListenTo(d.in, c.handleMessage)
	if err != nil {
		d.in.Close()
		c.currentIn = nil
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	c.stopListen = stop
	return nil
}

func (d RTMIDIDevice) String() string { return d.in.String() }

// handleMessage runs on the driver's callback goroutine; it forwards note
// events to the transport and never blocks. The MIDI channel picks the
// track.
func (c *RTMIDIContext) handleMessage(msg midi.Message, timestampms int32) {
	var channel, key, velocity uint8
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		studio.TrySend(c.broker.ToTransport, any(studio.NoteOnMsg{
			Track:    int(channel),
			Key:      int(key),
			Velocity: int(velocity),
		}))
	case msg.GetNoteOff(&channel, &key, &velocity):
		studio.TrySend(c.broker.ToTransport, any(studio.NoteOffMsg{
			Track: int(channel),
			Key:   int(key),
		}))
	}
}

func (c *RTMIDIContext) HasDeviceOpen() bool {
	return c.currentIn != nil && c.currentIn.IsOpen()
}

func (c *RTMIDIContext) Close() {
	if c.driver == nil {
		return
	}
	if c.stopListen != nil {
		c.stopListen()
	}
	if c.HasDeviceOpen() {
		c.currentIn.Close()
	}
	c.driver.Close()
}
