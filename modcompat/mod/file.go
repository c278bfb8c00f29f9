package mod

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/scylladb/go-set/strset"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"

	"github.com/anchore/modcompat/internal/log"
)

// entry is the shape of a single mod within a mod list file (JSON or YAML).
type entry struct {
	Name           string `json:"name" yaml:"name"`
	Version        string `json:"version" yaml:"version"`
	CompatibleWith string `json:"compatibleWith" yaml:"compatibleWith"`
	ReleaseDate    string `json:"releaseDate" yaml:"releaseDate"`
}

// ReadFile loads mod definitions from a JSON or YAML list. YAML is chosen by the .yaml/.yml extension.
func ReadFile(fs afero.Fs, path string) ([]*Mod, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open mod list (%s): %w", path, err)
	}
	defer log.CloseAndLogError(f, path)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return Decode(f, YAMLFormat)
	default:
		return Decode(f, JSONFormat)
	}
}

// Format is the serialization of a mod list.
type Format int

const (
	JSONFormat Format = iota
	YAMLFormat
)

// Decode reads a mod list in the given format. Duplicate definitions are dropped with a warning.
func Decode(reader io.Reader, f Format) ([]*Mod, error) {
	var entries []entry
	switch f {
	case YAMLFormat:
		if err := yaml.NewDecoder(reader).Decode(&entries); err != nil && err != io.EOF {
			return nil, fmt.Errorf("unable to parse mod list: %w", err)
		}
	default:
		if err := json.NewDecoder(reader).Decode(&entries); err != nil {
			return nil, fmt.Errorf("unable to parse mod list: %w", err)
		}
	}

	seen := strset.New()
	mods := make([]*Mod, 0, len(entries))
	for idx, e := range entries {
		released, err := parseReleaseDate(e.ReleaseDate)
		if err != nil {
			return nil, fmt.Errorf("mod #%d (%q) has bad releaseDate: %w", idx+1, e.Name, err)
		}

		m, err := New(e.Name, e.Version, e.CompatibleWith, released)
		if err != nil {
			return nil, fmt.Errorf("mod #%d: %w", idx+1, err)
		}

		if seen.Has(m.ID()) {
			log.Warnf("skipping duplicate mod definition: %s", m)
			continue
		}
		seen.Add(m.ID())
		mods = append(mods, m)
	}
	return mods, nil
}

func parseReleaseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("no release date provided")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
