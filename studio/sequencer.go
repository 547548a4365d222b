package studio

import (
	"time"

	"github.com/kaiku-audio/kaiku"
)

type (
	// Sequencer paces the transport with the audio hardware clock and turns
	// the song into synth trigger/release calls. It runs entirely inside the
	// audio callback: ReadAudio drains the control messages, renders audio in
	// chunks no longer than one tick and advances the transport by exactly
	// the samples rendered, so the musical position can never drift from what
	// has actually been heard.
	//
	// The synth may be nil; the sequencer then renders silence but still
	// paces the transport, which keeps headless and audio setups identical in
	// behavior.
	Sequencer struct {
		transport  *Transport
		synth      kaiku.Synth
		sampleRate int

		lastTick int
		active   []activeNote
	}

	activeNote struct {
		track   int
		key     int
		endTick int
	}
)

func NewSequencer(transport *Transport, synth kaiku.Synth, sampleRate int) *Sequencer {
	s := &Sequencer{
		transport:  transport,
		synth:      synth,
		sampleRate: sampleRate,
		lastTick:   -1,
	}
	transport.SetNoteSink(s)
	return s
}

// ReadAudio implements kaiku.AudioSource.
func (s *Sequencer) ReadAudio(buffer kaiku.AudioBuffer) (int, error) {
	s.transport.ProcessMessages()
	rendered := 0
	for rendered < len(buffer) {
		if s.transport.IsPlaying() {
			s.playTick(s.transport.Position())
		} else {
			s.releaseAll()
		}
		chunk := len(buffer) - rendered
		if spt := s.samplesPerTick(); s.transport.IsPlaying() && spt < chunk {
			chunk = spt
		}
		if err := s.render(buffer[rendered : rendered+chunk]); err != nil {
			return rendered, err
		}
		s.transport.Advance(time.Duration(chunk) * time.Second / time.Duration(s.sampleRate))
		rendered += chunk
	}
	// Advance may have stopped the transport at the song end during the
	// final chunk; close any notes still sounding.
	if !s.transport.IsPlaying() {
		s.releaseAll()
	}
	s.transport.SendStatus()
	return rendered, nil
}

// playTick triggers and releases the notes for every tick reached since the
// previous call. A position jump backwards (loop wrap, scrub) releases
// everything and restarts from the new position.
func (s *Sequencer) playTick(pos int) {
	if pos < s.lastTick {
		s.releaseAll()
		s.lastTick = pos - 1
	}
	song := &s.transport.song
	for tick := s.lastTick + 1; tick <= pos; tick++ {
		for i := len(s.active) - 1; i >= 0; i-- {
			if s.active[i].endTick <= tick {
				s.release(s.active[i])
				s.active = append(s.active[:i], s.active[i+1:]...)
			}
		}
		for trackIndex := range song.Tracks {
			if !song.Mixer.Audible(trackIndex) {
				continue
			}
			track := &song.Tracks[trackIndex]
			track.NotesAt(tick, func(n kaiku.Note) bool {
				s.trigger(trackIndex, n.Key, n.Velocity, tick+n.Length)
				return true
			})
		}
	}
	s.lastTick = pos
}

func (s *Sequencer) render(buffer kaiku.AudioBuffer) error {
	if s.synth == nil {
		for i := range buffer {
			buffer[i] = [2]float32{}
		}
		return nil
	}
	rendered := 0
	for rendered < len(buffer) {
		n, _, err := s.synth.Render(buffer[rendered:], len(buffer)-rendered)
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		rendered += n
	}
	for i := rendered; i < len(buffer); i++ {
		buffer[i] = [2]float32{}
	}
	return nil
}

func (s *Sequencer) samplesPerTick() int {
	bpm := s.transport.song.TempoChanges.BPMAt(s.transport.Position(), s.transport.song.BPM)
	spt := s.sampleRate * 60 / (bpm * kaiku.TicksPerBeat)
	if spt < 1 {
		spt = 1
	}
	return spt
}

func (s *Sequencer) trigger(track, key, velocity, endTick int) {
	if s.synth != nil {
		s.synth.Trigger(track, key, velocity)
	}
	s.active = append(s.active, activeNote{track: track, key: key, endTick: endTick})
}

func (s *Sequencer) release(n activeNote) {
	if s.synth != nil {
		s.synth.Release(n.track, n.key)
	}
}

func (s *Sequencer) releaseAll() {
	for _, n := range s.active {
		s.release(n)
	}
	s.active = s.active[:0]
}

// NoteOn implements the transport's NoteSink for live input: jammed notes
// sound immediately, released either by NoteOff or when jamming stops.
func (s *Sequencer) NoteOn(track, key, velocity int) {
	if s.synth != nil {
		s.synth.Trigger(track, key, velocity)
	}
}

func (s *Sequencer) NoteOff(track, key int) {
	if s.synth != nil {
		s.synth.Release(track, key)
	}
}
