package kaiku

type (
	// Mixer is the list of mixer channels. Channel i corresponds to track i;
	// extra channels (busses, master) may follow the track channels.
	Mixer struct {
		Channels []Channel
	}

	// Channel holds the mix parameters for one channel strip. Volume is linear
	// gain 0..1, Pan is -1 (left) to 1 (right).
	Channel struct {
		Name   string
		Volume float32
		Pan    float32 `yaml:",omitempty"`
		Mute   bool    `yaml:",omitempty"`
		Solo   bool    `yaml:",omitempty"`
	}
)

func (m *Mixer) Copy() Mixer {
	channels := make([]Channel, len(m.Channels))
	copy(channels, m.Channels)
	return Mixer{Channels: channels}
}

// Audible reports whether the channel should sound, taking the solo state of
// the whole mixer into account.
func (m *Mixer) Audible(index int) bool {
	if index < 0 || index >= len(m.Channels) {
		return false
	}
	if m.Channels[index].Mute {
		return false
	}
	for _, c := range m.Channels {
		if c.Solo {
			return m.Channels[index].Solo
		}
	}
	return true
}

// ClampVolume limits a gain value to the 0..1 range the faders cover.
func ClampVolume(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampPan limits a pan value to -1..1.
func ClampPan(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
