/*
Package state holds the persisted compatibility record: the epoch table, when it was last checked against the remote
source, and the cache validator presented on the next conditional fetch.
*/
package state

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/spf13/afero"

	"github.com/anchore/modcompat/modcompat/epoch"
)

// FileName is the name of the persisted state file within the state directory.
const FileName = "compatibility-state.json"

//go:embed default-compatibility-state.json
var defaultState []byte

// State is an immutable snapshot of the compatibility record. Use the With* methods to derive updated copies.
type State struct {
	Table   epoch.Table
	Checked *time.Time
	ETag    string
}

// Empty returns a state with no epochs, no validator and no check timestamp.
func Empty() State {
	return State{}
}

// Default returns the state bundled with the application.
func Default() (State, error) {
	var s State
	if err := json.Unmarshal(defaultState, &s); err != nil {
		return State{}, fmt.Errorf("unable to parse bundled compatibility state: %w", err)
	}
	return s, nil
}

// Path returns the location of the state file within the given directory.
func Path(dir string) string {
	return path.Join(dir, FileName)
}

// Read loads a previously persisted state from the given path.
func Read(fs afero.Fs, statePath string) (State, error) {
	f, err := fs.Open(statePath)
	if err != nil {
		return State{}, fmt.Errorf("unable to open compatibility state (%s): %w", statePath, err)
	}
	defer f.Close()

	var s State
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return State{}, fmt.Errorf("unable to parse compatibility state (%s): %w", statePath, err)
	}
	return s, nil
}

// Write persists the state to the given path, creating parent directories as needed. The file is replaced
// atomically so readers never observe a partially written state.
func (s State) Write(fs afero.Fs, statePath string) error {
	contents, err := json.MarshalIndent(&s, "", " ")
	if err != nil {
		return fmt.Errorf("failed to encode compatibility state: %w", err)
	}

	if err := fs.MkdirAll(path.Dir(statePath), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tempPath := statePath + ".tmp"
	if err := afero.WriteFile(fs, tempPath, contents, 0644); err != nil {
		return fmt.Errorf("failed to write compatibility state: %w", err)
	}

	if err := fs.Rename(tempPath, statePath); err != nil {
		_ = fs.Remove(tempPath)
		return fmt.Errorf("failed to replace compatibility state: %w", err)
	}
	return nil
}

// WithTable returns a copy of the state carrying the given table and cache validator.
func (s State) WithTable(table epoch.Table, etag string) State {
	s.Table = table
	s.ETag = etag
	return s
}

// WithChecked returns a copy of the state marked as checked at the given time.
func (s State) WithChecked(t time.Time) State {
	checked := t.UTC()
	s.Checked = &checked
	return s
}

func (s State) String() string {
	checked := "never"
	if s.Checked != nil {
		checked = s.Checked.Format(time.RFC3339)
	}
	return fmt.Sprintf("State(epochs=%d etag=%q checked=%s)", s.Table.Len(), s.ETag, checked)
}
