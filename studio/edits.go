package studio

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kaiku-audio/kaiku"
)

// songCommand is the general-purpose snapshot edit: it owns deep copies of
// the whole song before and after the edit, so Do and Undo are plain
// assignments and cannot be asymmetric. The edits that run on every knob or
// drag step use the smaller mergeable commands in params.go instead.
type songCommand struct {
	id          string
	description string
	timestamp   time.Time
	m           *Model
	before      kaiku.Song
	after       kaiku.Song
}

func (c *songCommand) ID() string           { return c.id }
func (c *songCommand) Description() string  { return c.description }
func (c *songCommand) Timestamp() time.Time { return c.timestamp }

func (c *songCommand) Do() error {
	c.m.d.Song = c.after
	c.m.songChanged()
	return nil
}

func (c *songCommand) Undo() error {
	c.m.d.Song = c.before
	c.m.songChanged()
	return nil
}

// songEdit applies edit to a scratch deep copy of the song and records the
// change as one undoable command. The edit function may freely mutate the
// scratch copy; nothing else aliases it.
func (m *Model) songEdit(description string, edit func(song *kaiku.Song) error) {
	after := m.d.Song.Copy()
	if err := edit(&after); err != nil {
		m.alerts.Add(fmt.Sprintf("%s: %v", description, err), Warning)
		return
	}
	m.history.Execute(&songCommand{
		id:          uuid.NewString(),
		description: description,
		timestamp:   time.Now(),
		m:           m,
		before:      m.d.Song.Copy(),
		after:       after,
	})
}

// AddTrack appends a track with a matching mixer channel.
func (m *Model) AddTrack(name string) {
	m.songEdit("Add track", func(song *kaiku.Song) error {
		if name == "" {
			name = fmt.Sprintf("Track %d", len(song.Tracks)+1)
		}
		song.Tracks = append(song.Tracks, kaiku.Track{Name: name})
		song.Mixer.Channels = append(song.Mixer.Channels, kaiku.Channel{Name: name, Volume: 1})
		return nil
	})
}

// DeleteTrack removes the track and its mixer channel.
func (m *Model) DeleteTrack(index int) {
	m.songEdit("Delete track", func(song *kaiku.Song) error {
		if index < 0 || index >= len(song.Tracks) {
			return fmt.Errorf("no track %d", index)
		}
		song.Tracks = append(song.Tracks[:index], song.Tracks[index+1:]...)
		song.Mixer.Channels = append(song.Mixer.Channels[:index], song.Mixer.Channels[index+1:]...)
		return nil
	})
}

func (m *Model) RenameTrack(index int, name string) {
	m.songEdit("Rename track", func(song *kaiku.Song) error {
		if index < 0 || index >= len(song.Tracks) {
			return fmt.Errorf("no track %d", index)
		}
		song.Tracks[index].Name = name
		song.Mixer.Channels[index].Name = name
		return nil
	})
}

// AddClip places a clip on a track.
func (m *Model) AddClip(track int, clip kaiku.Clip) {
	m.songEdit("Add clip", func(song *kaiku.Song) error {
		if track < 0 || track >= len(song.Tracks) {
			return fmt.Errorf("no track %d", track)
		}
		if clip.Start < 0 || clip.Length <= 0 {
			return fmt.Errorf("invalid clip placement (start %d, length %d)", clip.Start, clip.Length)
		}
		song.Tracks[track].Clips = append(song.Tracks[track].Clips, clip.Copy())
		return nil
	})
}

// DeleteClip removes a clip. Deleting a clip that is currently sounding is
// safe: the transport keeps playing its own copy of the song until the new
// version arrives between buffers.
func (m *Model) DeleteClip(track, clip int) {
	m.songEdit("Delete clip", func(song *kaiku.Song) error {
		if track < 0 || track >= len(song.Tracks) {
			return fmt.Errorf("no track %d", track)
		}
		clips := song.Tracks[track].Clips
		if clip < 0 || clip >= len(clips) {
			return fmt.Errorf("no clip %d on track %d", clip, track)
		}
		song.Tracks[track].Clips = append(clips[:clip], clips[clip+1:]...)
		return nil
	})
}

// AddNote inserts a note into a clip's pattern, keeping the pattern sorted
// by tick.
func (m *Model) AddNote(track, clip int, note kaiku.Note) {
	m.songEdit("Add note", func(song *kaiku.Song) error {
		c, err := clipAt(song, track, clip)
		if err != nil {
			return err
		}
		if note.Tick < 0 || note.Tick >= c.Length {
			return fmt.Errorf("note tick %d outside clip", note.Tick)
		}
		i := 0
		for i < len(c.Pattern) && c.Pattern[i].Tick <= note.Tick {
			i++
		}
		pattern := make(kaiku.Pattern, 0, len(c.Pattern)+1)
		pattern = append(pattern, c.Pattern[:i]...)
		pattern = append(pattern, note)
		pattern = append(pattern, c.Pattern[i:]...)
		c.Pattern = pattern
		return nil
	})
}

func (m *Model) DeleteNote(track, clip, note int) {
	m.songEdit("Delete note", func(song *kaiku.Song) error {
		c, err := clipAt(song, track, clip)
		if err != nil {
			return err
		}
		if note < 0 || note >= len(c.Pattern) {
			return fmt.Errorf("no note %d in clip", note)
		}
		c.Pattern = append(c.Pattern[:note], c.Pattern[note+1:]...)
		return nil
	})
}

func (m *Model) ToggleChannelMute(channel int) {
	m.songEdit("Toggle mute", func(song *kaiku.Song) error {
		if channel < 0 || channel >= len(song.Mixer.Channels) {
			return fmt.Errorf("no channel %d", channel)
		}
		song.Mixer.Channels[channel].Mute = !song.Mixer.Channels[channel].Mute
		return nil
	})
}

func (m *Model) ToggleChannelSolo(channel int) {
	m.songEdit("Toggle solo", func(song *kaiku.Song) error {
		if channel < 0 || channel >= len(song.Mixer.Channels) {
			return fmt.Errorf("no channel %d", channel)
		}
		song.Mixer.Channels[channel].Solo = !song.Mixer.Channels[channel].Solo
		return nil
	})
}

func (m *Model) SetTimeSignature(ts kaiku.TimeSignature) {
	if ts == m.d.Song.TimeSignature {
		return
	}
	m.songEdit("Set time signature", func(song *kaiku.Song) error {
		if ts.Numerator < 1 || ts.Denominator < 1 {
			return fmt.Errorf("invalid time signature %d/%d", ts.Numerator, ts.Denominator)
		}
		song.TimeSignature = ts
		return nil
	})
}

// InsertTempoChange adds a mid-song tempo change; the BPM is clamped like
// any other tempo set.
func (m *Model) InsertTempoChange(tick, bpm int) {
	m.songEdit("Insert tempo change", func(song *kaiku.Song) error {
		if tick < 0 {
			return fmt.Errorf("negative tick %d", tick)
		}
		song.TempoChanges = song.TempoChanges.Insert(kaiku.TempoChange{Tick: tick, BPM: bpm})
		return nil
	})
}

func (m *Model) DeleteTempoChange(tick int) {
	m.songEdit("Delete tempo change", func(song *kaiku.Song) error {
		changes := make(kaiku.TempoMap, 0, len(song.TempoChanges))
		for _, c := range song.TempoChanges {
			if c.Tick != tick {
				changes = append(changes, c)
			}
		}
		if len(changes) == len(song.TempoChanges) {
			return fmt.Errorf("no tempo change at tick %d", tick)
		}
		song.TempoChanges = changes
		return nil
	})
}

// ResetSong replaces the project with the default song. Not undoable; the
// history is cleared.
func (m *Model) ResetSong() {
	m.setSongNoUndo(defaultSong.Copy())
	m.d.FilePath = ""
	m.d.ChangedSinceSave = false
}

func clipAt(song *kaiku.Song, track, clip int) (*kaiku.Clip, error) {
	if track < 0 || track >= len(song.Tracks) {
		return nil, fmt.Errorf("no track %d", track)
	}
	if clip < 0 || clip >= len(song.Tracks[track].Clips) {
		return nil, fmt.Errorf("no clip %d on track %d", clip, track)
	}
	return &song.Tracks[track].Clips[clip], nil
}
