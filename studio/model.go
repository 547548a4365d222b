package studio

import (
	"fmt"
	"log"
	"os"

	"github.com/kaiku-audio/kaiku"
)

type (
	// modelData is the part of the model that gets saved to the recovery file.
	modelData struct {
		Song                 kaiku.Song
		FilePath             string
		RecordTrack          int
		ChangedSinceSave     bool
		RecoveryFilePath     string
		ChangedSinceRecovery bool
	}

	// Model is the mutable project state, owned by the UI goroutine. Every
	// edit goes through the History as a Command; the transport runs on its
	// own goroutine and only ever sees deep copies of the song, sent through
	// the broker. The two never share mutable data, which is why neither
	// needs a lock.
	//
	// Edits follow a copy-on-write discipline: they replace the slices they
	// touch instead of mutating them, because command snapshots on the undo
	// stack alias the slices of the song versions they captured.
	Model struct {
		d modelData

		history *History
		alerts  *Alerts
		broker  *Broker

		// transport status as last reported; display state, not undoable
		playing      bool
		recording    bool
		playPosition int
		loop         Loop
	}
)

func NewModel(broker *Broker, recoveryFilePath string) *Model {
	m := &Model{
		history: NewHistory(),
		alerts:  NewAlerts(),
		broker:  broker,
	}
	m.history.warn = m.warnf
	m.d.RecoveryFilePath = recoveryFilePath
	m.setSongNoUndo(defaultSong.Copy())
	if recoveryFilePath != "" {
		if bytes, err := os.ReadFile(recoveryFilePath); err == nil {
			m.UnmarshalRecovery(bytes)
		}
	}
	return m
}

func (m *Model) Song() kaiku.Song     { return m.d.Song }
func (m *Model) History() *History    { return m.history }
func (m *Model) Alerts() *Alerts      { return m.alerts }
func (m *Model) Broker() *Broker      { return m.broker }
func (m *Model) FilePath() string     { return m.d.FilePath }
func (m *Model) SetFilePath(p string) { m.d.FilePath = p }

func (m *Model) ChangedSinceSave() bool     { return m.d.ChangedSinceSave }
func (m *Model) SetChangedSinceSave(v bool) { m.d.ChangedSinceSave = v }

func (m *Model) Playing() bool     { return m.playing }
func (m *Model) Recording() bool   { return m.recording }
func (m *Model) PlayPosition() int { return m.playPosition }
func (m *Model) Loop() Loop        { return m.loop }

// PositionString renders the last reported play position for the position
// display.
func (m *Model) PositionString() string {
	return kaiku.FormatPosition(m.playPosition, m.d.Song.TimeSignature.Numerator)
}

// RecordTrack is the track armed for recording; captured notes land there.
func (m *Model) RecordTrack() int { return m.d.RecordTrack }

func (m *Model) SetRecordTrack(track int) {
	if track < 0 || track >= len(m.d.Song.Tracks) {
		return
	}
	m.d.RecordTrack = track
}

// Undo reverses the latest edit. Returns false when there was nothing to
// undo. Playback position is transport state and is never rewound by undo.
func (m *Model) Undo() bool { return m.history.Undo() }

// Redo reapplies the latest undone edit.
func (m *Model) Redo() bool { return m.history.Redo() }

// ProcessMessages drains the transport status messages. Called once per UI
// frame.
func (m *Model) ProcessMessages() {
	for {
		select {
		case msg := <-m.broker.ToModel:
			if msg.HasStatus {
				m.playPosition = msg.Position
				m.playing = msg.Playing
			}
			switch data := msg.Data.(type) {
			case Recording:
				m.finishRecording(data)
			default:
			}
		default:
			return
		}
	}
}

// Play starts playback from the last reported position.
func (m *Model) Play() { m.PlayFrom(m.playPosition) }

// PlayFrom starts playback from the given tick.
func (m *Model) PlayFrom(tick int) {
	m.playing = true
	TrySend(m.broker.ToTransport, any(StartPlayMsg{Tick: tick}))
}

func (m *Model) Pause() {
	m.playing = false
	TrySend(m.broker.ToTransport, any(PauseMsg{}))
}

func (m *Model) Stop() {
	m.playing = false
	m.playPosition = 0
	TrySend(m.broker.ToTransport, any(StopMsg{}))
}

func (m *Model) TogglePlayback() {
	if m.playing {
		m.Pause()
	} else {
		m.Play()
	}
}

// Scrub moves the playhead without changing the play state.
func (m *Model) Scrub(tick int) {
	if tick < 0 {
		tick = 0
	}
	m.playPosition = tick
	TrySend(m.broker.ToTransport, any(SetPositionMsg{Tick: tick}))
}

func (m *Model) SetLoop(loop Loop) {
	m.loop = loop
	TrySend(m.broker.ToTransport, any(loop))
}

func (m *Model) SetRecording(val bool) {
	if m.recording == val {
		return
	}
	m.recording = val
	TrySend(m.broker.ToTransport, any(RecordingMsg{val}))
}

// NoteOn routes a live note (screen piano, MIDI input) to the transport for
// jamming and recording.
func (m *Model) NoteOn(track, key, velocity int) {
	TrySend(m.broker.ToTransport, any(NoteOnMsg{Track: track, Key: key, Velocity: velocity}))
}

func (m *Model) NoteOff(track, key int) {
	TrySend(m.broker.ToTransport, any(NoteOffMsg{Track: track, Key: key}))
}

// setSongNoUndo replaces the whole project bypassing the history. Only used
// on project load and reset, which also clear the history: undo never
// crosses a project boundary.
func (m *Model) setSongNoUndo(song kaiku.Song) {
	m.d.Song = song
	if m.d.RecordTrack >= len(song.Tracks) {
		m.d.RecordTrack = 0
	}
	m.history.Clear()
	m.sendSong()
}

// sendSong hands a fresh deep copy of the song to the transport goroutine.
func (m *Model) sendSong() {
	TrySend(m.broker.ToTransport, any(m.d.Song.Copy()))
}

// songChanged marks the project dirty and pushes the new version to the
// transport. Called by every command's Do and Undo.
func (m *Model) songChanged() {
	m.d.ChangedSinceSave = true
	m.d.ChangedSinceRecovery = true
	m.sendSong()
}

func (m *Model) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Print(msg)
	m.alerts.AddNamed("history", msg, Warning)
}

// finishRecording turns the notes captured by the transport into a clip on
// the armed track, as a single undoable edit.
func (m *Model) finishRecording(rec Recording) {
	if len(rec.Notes) == 0 || len(m.d.Song.Tracks) == 0 {
		return
	}
	track := m.d.RecordTrack
	if track >= len(m.d.Song.Tracks) {
		track = 0
	}
	ticksPerBar := kaiku.TicksPerBeat * m.d.Song.TimeSignature.Numerator
	start, end := rec.Notes[0].Tick, 0
	for _, n := range rec.Notes {
		if n.Tick < start {
			start = n.Tick
		}
		if e := n.Tick + n.Length; e > end {
			end = e
		}
	}
	start = start / ticksPerBar * ticksPerBar // snap the clip to the bar
	length := (end - start + ticksPerBar - 1) / ticksPerBar * ticksPerBar
	pattern := make(kaiku.Pattern, 0, len(rec.Notes))
	for _, n := range rec.Notes {
		n.Tick -= start
		pattern = append(pattern, n)
	}
	m.AddClip(track, kaiku.Clip{Name: "Recorded", Start: start, Length: length, Pattern: pattern})
}
