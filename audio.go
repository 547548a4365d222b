package kaiku

type (
	// AudioBuffer is a slice of stereo samples.
	AudioBuffer [][2]float32

	// Synth renders audio for the sequencer. Render tries to fill the buffer,
	// but stops after maxtime samples have been advanced, so the sequencer can
	// trigger notes exactly on tick boundaries. It returns the number of
	// samples written and the number of time samples advanced (equal unless
	// the synth stopped early). Kaiku ships no synthesis of its own; hosts
	// plug their instruments in through this interface.
	Synth interface {
		Render(buffer AudioBuffer, maxtime int) (sample, time int, err error)
		Trigger(channel int, key int, velocity int)
		Release(channel int, key int)
	}

	// AudioSource produces audio to play, e.g. the studio sequencer. Read
	// fills the buffer and returns the number of frames written; it is called
	// from the audio goroutine and must not block on anything slow.
	AudioSource interface {
		ReadAudio(buffer AudioBuffer) (int, error)
	}
)
