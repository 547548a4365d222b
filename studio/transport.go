package studio

import (
	"time"

	"github.com/kaiku-audio/kaiku"
)

type (
	// Transport is the authoritative playback position and play/record state.
	// The position is integer ticks (480 per beat); advancement anchors to a
	// reference tick and accumulates elapsed time, so repeated small advances
	// cannot drift against the clock driving them.
	//
	// Transport state is deliberately outside the undo system: undoing a
	// "delete clip" restores the clip data but never seeks playback.
	//
	// A Transport is owned by one goroutine at a time: either its own Run
	// loop (wall-clock driven, headless) or the audio callback through a
	// Sequencer (sample-clock driven). The model talks to it only through the
	// broker.
	Transport struct {
		song      kaiku.Song
		pos       int
		playing   bool
		recording bool
		loop      Loop

		// anchor for drift-free advancement: pos is derived from anchorTick
		// plus the time elapsed since the anchor was set
		anchorTick int
		elapsed    time.Duration

		capture []kaiku.Note // notes captured while recording, absolute ticks
		held    map[int]heldNote

		broker *Broker
		sync   *TransportSync
		notes  NoteSink
	}

	// NoteSink receives live note input routed through the transport, e.g. a
	// sequencer triggering a synth for jamming.
	NoteSink interface {
		NoteOn(track, key, velocity int)
		NoteOff(track, key int)
	}

	// Loop is the looped region in ticks, end exclusive. The region is
	// caller-defined: the song editor loops over the song selection, a
	// pattern editor over the pattern length.
	Loop struct {
		Start   int
		End     int
		Enabled bool
	}

	// Recording is sent to the model when recording stops, carrying the
	// captured notes with song-absolute ticks.
	Recording struct {
		Notes []kaiku.Note
	}

	heldNote struct {
		startTick int
		velocity  int
	}
)

// interval of the wall-clock Run loop; roughly four ticks at 120 BPM
const transportTickInterval = 4 * time.Millisecond

func NewTransport(broker *Broker, song kaiku.Song) *Transport {
	return &Transport{
		song:   song,
		broker: broker,
		held:   make(map[int]heldNote),
	}
}

// SetSync attaches an OSC sync publisher. Must be set before Run starts.
func (t *Transport) SetSync(sync *TransportSync) { t.sync = sync }

// SetNoteSink routes live note input to a listener. Must be set before the
// transport starts processing messages.
func (t *Transport) SetNoteSink(sink NoteSink) { t.notes = sink }

func (t *Transport) Position() int                      { return t.pos }
func (t *Transport) IsPlaying() bool                    { return t.playing }
func (t *Transport) IsRecording() bool                  { return t.recording }
func (t *Transport) Tempo() int                         { return t.song.BPM }
func (t *Transport) TimeSignature() kaiku.TimeSignature { return t.song.TimeSignature }
func (t *Transport) Loop() Loop                         { return t.loop }

// PositionString renders the current position as bars:beats:ticks.
func (t *Transport) PositionString() string {
	return kaiku.FormatPosition(t.pos, t.song.TimeSignature.Numerator)
}

// PositionTime returns the current position as time from the song start,
// following the tempo map.
func (t *Transport) PositionTime() time.Duration {
	return t.song.TempoChanges.TimeAt(t.pos, t.song.BPM)
}

// Play starts advancing from the current position. Resuming from a pause
// continues where pause left off.
func (t *Transport) Play() {
	if t.playing {
		return
	}
	t.playing = true
	t.rebase(t.pos)
	if t.sync != nil {
		t.sync.Play(t.pos)
	}
}

// Pause freezes the position, retaining it for resume.
func (t *Transport) Pause() {
	if !t.playing {
		return
	}
	t.playing = false
	if t.sync != nil {
		t.sync.Stop()
	}
}

// Stop halts playback and resets the position to zero. This is a hard reset;
// Pause is the soft freeze.
func (t *Transport) Stop() {
	t.playing = false
	t.rebase(0)
	if t.sync != nil {
		t.sync.Stop()
	}
}

// Toggle starts playback if stopped and pauses it if playing.
func (t *Transport) Toggle() {
	if t.playing {
		t.Pause()
	} else {
		t.Play()
	}
}

// SetPosition scrubs to the given tick without changing the play state.
func (t *Transport) SetPosition(ticks int) {
	if ticks < 0 {
		ticks = 0
	}
	t.rebase(ticks)
}

// SetTempo sets the tempo, silently clamping to [20, 999] BPM.
func (t *Transport) SetTempo(bpm int) {
	t.song.BPM = kaiku.ClampBPM(bpm)
	t.rebase(t.pos)
	if t.sync != nil {
		t.sync.Tempo(t.song.BPM)
	}
}

func (t *Transport) SetTimeSignature(ts kaiku.TimeSignature) {
	if ts.Numerator < 1 || ts.Denominator < 1 {
		return
	}
	t.song.TimeSignature = ts
}

// SetLoop sets the looped region. An empty or inverted region disables
// looping regardless of the Enabled flag.
func (t *Transport) SetLoop(loop Loop) {
	if loop.End <= loop.Start {
		loop.Enabled = false
	}
	t.loop = loop
}

// StartRecording arms recording. The flag is independent of playback: it is
// honored only while playing, but toggling it never starts or stops the
// transport itself.
func (t *Transport) StartRecording() {
	if t.recording {
		return
	}
	t.recording = true
	t.capture = nil
	clear(t.held)
}

// StopRecording disarms recording, closes any held notes at the current
// position and hands the captured notes to the model.
func (t *Transport) StopRecording() {
	if !t.recording {
		return
	}
	t.recording = false
	for key, h := range t.held {
		t.capture = append(t.capture, kaiku.Note{Tick: h.startTick, Length: t.pos - h.startTick, Key: key, Velocity: h.velocity})
	}
	clear(t.held)
	if len(t.capture) > 0 && t.broker != nil {
		TrySend(t.broker.ToModel, MsgToModel{Data: Recording{Notes: t.capture}})
	}
	t.capture = nil
}

// SetSong replaces the song copy the transport reads. The copy is owned by
// the transport goroutine; the model always sends a fresh deep copy.
func (t *Transport) SetSong(song kaiku.Song) {
	t.song = song
	t.rebase(t.pos)
}

// Advance moves the position forward by the elapsed wall-clock (or audio
// buffer) time, wrapping at the loop end and stopping at the song end when
// not looping.
func (t *Transport) Advance(elapsed time.Duration) {
	if !t.playing || elapsed <= 0 {
		return
	}
	t.elapsed += elapsed
	tm, bpm := t.song.TempoChanges, t.song.BPM
	pos := tm.TickAt(tm.TimeAt(t.anchorTick, bpm)+t.elapsed, bpm)
	if t.loop.Enabled {
		if length := t.loop.End - t.loop.Start; pos >= t.loop.End {
			pos = t.loop.Start + (pos-t.loop.Start)%length
			t.rebase(pos)
		}
	} else if end := t.song.EndTick(); end > 0 && pos >= end {
		t.playing = false
		pos = end
		if t.sync != nil {
			t.sync.Stop()
		}
	}
	t.pos = pos
}

// rebase re-anchors the advancement at the given tick. Called on every
// position or tempo discontinuity so the elapsed-time accumulation always
// refers to a constant-tempo-map stretch.
func (t *Transport) rebase(tick int) {
	t.anchorTick = tick
	t.elapsed = 0
	t.pos = tick
}

// Run is the wall-clock driver, used when no audio device paces the
// transport. It drains control messages, advances the position and reports
// status until CloseTransport is signalled.
func (t *Transport) Run() {
	ticker := time.NewTicker(transportTickInterval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-t.broker.CloseTransport:
			close(t.broker.FinishedTransport)
			return
		case now := <-ticker.C:
			t.ProcessMessages()
			wasPlaying := t.playing
			t.Advance(now.Sub(last))
			last = now
			if t.playing || wasPlaying {
				t.SendStatus()
			}
		}
	}
}

// ProcessMessages drains the control channel without blocking. Called by Run
// or by the sequencer once per audio buffer.
func (t *Transport) ProcessMessages() {
	for {
		select {
		case msg := <-t.broker.ToTransport:
			switch m := msg.(type) {
			case kaiku.Song:
				t.SetSong(m)
			case StartPlayMsg:
				t.SetPosition(m.Tick)
				t.playing = false
				t.Play()
			case PauseMsg:
				t.Pause()
			case StopMsg:
				t.Stop()
			case SetPositionMsg:
				t.SetPosition(m.Tick)
			case BPMMsg:
				t.SetTempo(m.int)
			case TimeSignatureMsg:
				t.SetTimeSignature(m.TimeSignature)
			case Loop:
				t.SetLoop(m)
			case RecordingMsg:
				if m.bool {
					t.StartRecording()
				} else {
					t.StopRecording()
				}
			case NoteOnMsg:
				t.noteOn(m)
			case NoteOffMsg:
				t.noteOff(m)
			default:
				// ignore unknown messages
			}
		default:
			return
		}
	}
}

// SendStatus reports the position and play state to the model. Non-blocking:
// a congested model just misses one status update.
func (t *Transport) SendStatus() {
	if t.broker == nil {
		return
	}
	TrySend(t.broker.ToModel, MsgToModel{HasStatus: true, Position: t.pos, Playing: t.playing})
}

func (t *Transport) noteOn(m NoteOnMsg) {
	if t.notes != nil {
		t.notes.NoteOn(m.Track, m.Key, m.Velocity)
	}
	if !t.recording || !t.playing {
		return
	}
	// retrigger of a held key closes the previous note first
	if h, ok := t.held[m.Key]; ok {
		t.capture = append(t.capture, kaiku.Note{Tick: h.startTick, Length: t.pos - h.startTick, Key: m.Key, Velocity: h.velocity})
	}
	t.held[m.Key] = heldNote{startTick: t.pos, velocity: m.Velocity}
}

func (t *Transport) noteOff(m NoteOffMsg) {
	if t.notes != nil {
		t.notes.NoteOff(m.Track, m.Key)
	}
	h, ok := t.held[m.Key]
	if !ok {
		return
	}
	delete(t.held, m.Key)
	length := t.pos - h.startTick
	if length <= 0 {
		length = 1
	}
	t.capture = append(t.capture, kaiku.Note{Tick: h.startTick, Length: length, Key: m.Key, Velocity: h.velocity})
}
