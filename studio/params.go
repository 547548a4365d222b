package studio

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kaiku-audio/kaiku"
)

// The commands in this file are the high-frequency edits: dragging a fader,
// a pan pot, a note or a clip emits one command per pointer move. Each of
// them implements Merger so that consecutive tweaks of the same target
// collapse into a single history entry, keeping the older command's identity
// and before value and the newer command's after value.

type channelParam int

const (
	paramVolume channelParam = iota
	paramPan
)

type channelParamCommand struct {
	id        string
	timestamp time.Time
	m         *Model
	channel   int
	param     channelParam
	before    float32
	after     float32
}

func (c *channelParamCommand) ID() string           { return c.id }
func (c *channelParamCommand) Timestamp() time.Time { return c.timestamp }

func (c *channelParamCommand) Description() string {
	switch c.param {
	case paramPan:
		return "Set pan"
	default:
		return "Set volume"
	}
}

func (c *channelParamCommand) apply(value float32) error {
	song := &c.m.d.Song
	if c.channel < 0 || c.channel >= len(song.Mixer.Channels) {
		return fmt.Errorf("no channel %d", c.channel)
	}
	// Replace the channel slice instead of writing through it; the undo
	// snapshots alias the old slice.
	channels := make([]kaiku.Channel, len(song.Mixer.Channels))
	copy(channels, song.Mixer.Channels)
	switch c.param {
	case paramPan:
		channels[c.channel].Pan = value
	default:
		channels[c.channel].Volume = value
	}
	song.Mixer.Channels = channels
	c.m.songChanged()
	return nil
}

func (c *channelParamCommand) Do() error   { return c.apply(c.after) }
func (c *channelParamCommand) Undo() error { return c.apply(c.before) }

func (c *channelParamCommand) CanMergeWith(next Command) bool {
	n, ok := next.(*channelParamCommand)
	return ok && n.channel == c.channel && n.param == c.param
}

func (c *channelParamCommand) MergeWith(next Command) Command {
	n := next.(*channelParamCommand)
	return &channelParamCommand{
		id:        c.id,
		timestamp: c.timestamp,
		m:         c.m,
		channel:   c.channel,
		param:     c.param,
		before:    c.before,
		after:     n.after,
	}
}

// SetChannelVolume sets a mixer channel's fader, clamped to [0, 1].
func (m *Model) SetChannelVolume(channel int, volume float32) {
	m.setChannelParam(channel, paramVolume, kaiku.ClampVolume(volume))
}

// SetChannelPan sets a mixer channel's pan, clamped to [-1, 1].
func (m *Model) SetChannelPan(channel int, pan float32) {
	m.setChannelParam(channel, paramPan, kaiku.ClampPan(pan))
}

func (m *Model) setChannelParam(channel int, param channelParam, value float32) {
	if channel < 0 || channel >= len(m.d.Song.Mixer.Channels) {
		m.alerts.Add(fmt.Sprintf("no channel %d", channel), Warning)
		return
	}
	before := m.d.Song.Mixer.Channels[channel].Volume
	if param == paramPan {
		before = m.d.Song.Mixer.Channels[channel].Pan
	}
	if before == value {
		return
	}
	m.history.Execute(&channelParamCommand{
		id:        uuid.NewString(),
		timestamp: time.Now(),
		m:         m,
		channel:   channel,
		param:     param,
		before:    before,
		after:     value,
	})
}

type bpmCommand struct {
	id        string
	timestamp time.Time
	m         *Model
	before    int
	after     int
}

func (c *bpmCommand) ID() string           { return c.id }
func (c *bpmCommand) Description() string  { return "Set tempo" }
func (c *bpmCommand) Timestamp() time.Time { return c.timestamp }

func (c *bpmCommand) apply(bpm int) error {
	c.m.d.Song.BPM = bpm
	c.m.songChanged()
	TrySend(c.m.broker.ToTransport, any(BPMMsg{bpm}))
	return nil
}

func (c *bpmCommand) Do() error   { return c.apply(c.after) }
func (c *bpmCommand) Undo() error { return c.apply(c.before) }

func (c *bpmCommand) CanMergeWith(next Command) bool {
	_, ok := next.(*bpmCommand)
	return ok
}

func (c *bpmCommand) MergeWith(next Command) Command {
	n := next.(*bpmCommand)
	return &bpmCommand{id: c.id, timestamp: c.timestamp, m: c.m, before: c.before, after: n.after}
}

// SetBPM sets the song tempo, clamped to the valid range, and forwards the
// new tempo to the transport so playback speed changes immediately.
func (m *Model) SetBPM(bpm int) {
	bpm = kaiku.ClampBPM(bpm)
	if bpm == m.d.Song.BPM {
		return
	}
	m.history.Execute(&bpmCommand{
		id:        uuid.NewString(),
		timestamp: time.Now(),
		m:         m,
		before:    m.d.Song.BPM,
		after:     bpm,
	})
}

type noteMoveCommand struct {
	id          string
	timestamp   time.Time
	m           *Model
	track, clip int
	note        int
	before      kaiku.Note
	after       kaiku.Note
}

func (c *noteMoveCommand) ID() string           { return c.id }
func (c *noteMoveCommand) Description() string  { return "Move note" }
func (c *noteMoveCommand) Timestamp() time.Time { return c.timestamp }

func (c *noteMoveCommand) apply(note kaiku.Note) error {
	target, err := clipAt(&c.m.d.Song, c.track, c.clip)
	if err != nil {
		return err
	}
	if c.note < 0 || c.note >= len(target.Pattern) {
		return fmt.Errorf("no note %d in clip", c.note)
	}
	pattern := make(kaiku.Pattern, len(target.Pattern))
	copy(pattern, target.Pattern)
	pattern[c.note] = note
	target.Pattern = pattern
	c.m.songChanged()
	return nil
}

func (c *noteMoveCommand) Do() error   { return c.apply(c.after) }
func (c *noteMoveCommand) Undo() error { return c.apply(c.before) }

func (c *noteMoveCommand) CanMergeWith(next Command) bool {
	n, ok := next.(*noteMoveCommand)
	return ok && n.track == c.track && n.clip == c.clip && n.note == c.note
}

func (c *noteMoveCommand) MergeWith(next Command) Command {
	n := next.(*noteMoveCommand)
	return &noteMoveCommand{
		id:        c.id,
		timestamp: c.timestamp,
		m:         c.m,
		track:     c.track,
		clip:      c.clip,
		note:      c.note,
		before:    c.before,
		after:     n.after,
	}
}

// MoveNote changes a note's position, pitch or length. Consecutive moves of
// the same note merge, so dragging a note across the piano roll undoes back
// to where the drag started in one step.
func (m *Model) MoveNote(track, clip, note int, to kaiku.Note) {
	c, err := clipAt(&m.d.Song, track, clip)
	if err != nil {
		m.alerts.Add(err.Error(), Warning)
		return
	}
	if note < 0 || note >= len(c.Pattern) {
		m.alerts.Add(fmt.Sprintf("no note %d in clip", note), Warning)
		return
	}
	if to.Tick < 0 || to.Tick >= c.Length {
		m.alerts.Add(fmt.Sprintf("note tick %d outside clip", to.Tick), Warning)
		return
	}
	if c.Pattern[note] == to {
		return
	}
	m.history.Execute(&noteMoveCommand{
		id:        uuid.NewString(),
		timestamp: time.Now(),
		m:         m,
		track:     track,
		clip:      clip,
		note:      note,
		before:    c.Pattern[note],
		after:     to,
	})
}

type clipMoveCommand struct {
	id          string
	timestamp   time.Time
	m           *Model
	track, clip int
	before      int
	after       int
}

func (c *clipMoveCommand) ID() string           { return c.id }
func (c *clipMoveCommand) Description() string  { return "Move clip" }
func (c *clipMoveCommand) Timestamp() time.Time { return c.timestamp }

func (c *clipMoveCommand) apply(start int) error {
	song := &c.m.d.Song
	if c.track < 0 || c.track >= len(song.Tracks) {
		return fmt.Errorf("no track %d", c.track)
	}
	clips := make([]kaiku.Clip, len(song.Tracks[c.track].Clips))
	copy(clips, song.Tracks[c.track].Clips)
	if c.clip < 0 || c.clip >= len(clips) {
		return fmt.Errorf("no clip %d on track %d", c.clip, c.track)
	}
	clips[c.clip].Start = start
	song.Tracks[c.track].Clips = clips
	c.m.songChanged()
	return nil
}

func (c *clipMoveCommand) Do() error   { return c.apply(c.after) }
func (c *clipMoveCommand) Undo() error { return c.apply(c.before) }

func (c *clipMoveCommand) CanMergeWith(next Command) bool {
	n, ok := next.(*clipMoveCommand)
	return ok && n.track == c.track && n.clip == c.clip
}

func (c *clipMoveCommand) MergeWith(next Command) Command {
	n := next.(*clipMoveCommand)
	return &clipMoveCommand{
		id:        c.id,
		timestamp: c.timestamp,
		m:         c.m,
		track:     c.track,
		clip:      c.clip,
		before:    c.before,
		after:     n.after,
	}
}

// MoveClip slides a clip along its track.
func (m *Model) MoveClip(track, clip, start int) {
	song := &m.d.Song
	if track < 0 || track >= len(song.Tracks) || clip < 0 || clip >= len(song.Tracks[track].Clips) {
		m.alerts.Add(fmt.Sprintf("no clip %d on track %d", clip, track), Warning)
		return
	}
	if start < 0 {
		m.alerts.Add(fmt.Sprintf("clip start %d out of range", start), Warning)
		return
	}
	if song.Tracks[track].Clips[clip].Start == start {
		return
	}
	m.history.Execute(&clipMoveCommand{
		id:        uuid.NewString(),
		timestamp: time.Now(),
		m:         m,
		track:     track,
		clip:      clip,
		before:    song.Tracks[track].Clips[clip].Start,
		after:     start,
	})
}
