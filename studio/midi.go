package studio

import "strings"

type (
	// MIDIContext is how the studio talks to whatever MIDI backend the build
	// has. Incoming notes arrive as NoteOnMsg/NoteOffMsg on the broker's
	// transport channel, so the context only needs to manage devices.
	MIDIContext interface {
		InputDevices(yield func(MIDIDevice) bool)
		HasDeviceOpen() bool
		Close()
	}

	MIDIDevice interface {
		Open() error
		String() string
	}

	// NullMIDIContext is used when the build has no MIDI support.
	NullMIDIContext struct{}
)

func (NullMIDIContext) InputDevices(yield func(MIDIDevice) bool) {}
func (NullMIDIContext) HasDeviceOpen() bool                      { return false }
func (NullMIDIContext) Close()                                   {}

// FindMIDIDeviceByPrefix returns the first input device whose name starts
// with prefix. An empty prefix matches the first device.
func FindMIDIDeviceByPrefix(c MIDIContext, prefix string) (MIDIDevice, bool) {
	var found MIDIDevice
	c.InputDevices(func(d MIDIDevice) bool {
		if strings.HasPrefix(d.String(), prefix) {
			found = d
			return false
		}
		return true
	})
	return found, found != nil
}
