package studio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/kaiku-audio/kaiku"
)

// Song files are yaml by default, json when the filename says so. Recovery
// files are always json, written with jsoniter since they get serialized on
// a timer while the user works.

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ReadSong loads a project, replacing the current one. Loading clears the
// history; undo never crosses a project boundary.
func (m *Model) ReadSong(r io.ReadCloser) {
	b, err := io.ReadAll(r)
	if err != nil {
		m.alerts.Add(fmt.Sprintf("Error reading song file: %v", err), Error)
		return
	}
	if err := r.Close(); err != nil {
		m.alerts.Add(fmt.Sprintf("Error closing song file: %v", err), Error)
		return
	}
	var song kaiku.Song
	if errJSON := json.Unmarshal(b, &song); errJSON != nil {
		if errYaml := yaml.Unmarshal(b, &song); errYaml != nil {
			m.alerts.Add(fmt.Sprintf("Error unmarshaling a song file: %v / %v", errYaml, errJSON), Error)
			return
		}
	}
	if err := song.Validate(); err != nil {
		m.alerts.Add(fmt.Sprintf("Invalid song file: %v", err), Error)
		return
	}
	m.setSongNoUndo(song)
	if f, ok := r.(*os.File); ok {
		m.d.FilePath = f.Name()
		m.d.ChangedSinceSave = false
	}
	TrySend(m.broker.ToTransport, any(BPMMsg{song.BPM}))
	TrySend(m.broker.ToTransport, any(TimeSignatureMsg{song.TimeSignature}))
}

// WriteSong saves the project. The format follows the file extension, yaml
// unless it is .json.
func (m *Model) WriteSong(w io.WriteCloser) {
	path := ""
	if f, ok := w.(*os.File); ok {
		path = f.Name()
	}
	var contents []byte
	var err error
	if filepath.Ext(path) == ".json" {
		contents, err = json.Marshal(m.d.Song)
	} else {
		contents, err = yaml.Marshal(m.d.Song)
	}
	if err != nil {
		m.alerts.Add(fmt.Sprintf("Error marshaling a song file: %v", err), Error)
		return
	}
	if _, err := w.Write(contents); err != nil {
		m.alerts.Add(fmt.Sprintf("Error writing to file: %v", err), Error)
		return
	}
	if err := w.Close(); err != nil {
		m.alerts.Add(fmt.Sprintf("Error closing song file: %v", err), Error)
		return
	}
	if path != "" {
		m.d.FilePath = path
	}
	m.d.ChangedSinceSave = false
}

// LoadSongFile is ReadSong with a path.
func (m *Model) LoadSongFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	m.ReadSong(f)
	return nil
}

// SaveSongFile is WriteSong with a path.
func (m *Model) SaveSongFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	m.WriteSong(f)
	return nil
}

// MarshalRecovery marshals the model data for recovery saving and removes
// the recovery file, for the clean-exit path: the next start should not
// restore anything.
func (m *Model) MarshalRecovery() []byte {
	out, err := json.Marshal(m.d)
	if err != nil {
		return nil
	}
	if m.d.RecoveryFilePath != "" {
		os.Remove(m.d.RecoveryFilePath)
	}
	m.d.ChangedSinceRecovery = false
	return out
}

// SaveRecovery saves the model data to the recovery file on disk if there
// are changes since the last recovery save.
func (m *Model) SaveRecovery() error {
	if !m.d.ChangedSinceRecovery {
		return nil
	}
	if m.d.RecoveryFilePath == "" {
		return errors.New("no recovery file path")
	}
	out, err := json.Marshal(m.d)
	if err != nil {
		return fmt.Errorf("could not marshal recovery data: %w", err)
	}
	dir := filepath.Dir(m.d.RecoveryFilePath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		os.MkdirAll(dir, os.ModePerm)
	}
	if err := os.WriteFile(m.d.RecoveryFilePath, out, 0644); err != nil {
		return fmt.Errorf("could not write recovery file: %w", err)
	}
	m.d.ChangedSinceRecovery = false
	return nil
}

// UnmarshalRecovery restores the model data from a recovery save. The
// history starts empty; only the data survives a crash, not the undo stack.
func (m *Model) UnmarshalRecovery(bytes []byte) {
	var data modelData
	if err := json.Unmarshal(bytes, &data); err != nil {
		return
	}
	if err := data.Song.Validate(); err != nil {
		return
	}
	recoveryPath := m.d.RecoveryFilePath
	m.d = data
	m.d.RecoveryFilePath = recoveryPath
	m.d.ChangedSinceRecovery = false
	m.history.Clear()
	m.sendSong()
	TrySend(m.broker.ToTransport, any(BPMMsg{m.d.Song.BPM}))
	TrySend(m.broker.ToTransport, any(TimeSignatureMsg{m.d.Song.TimeSignature}))
}
