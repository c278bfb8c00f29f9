package models

import (
	"time"

	"github.com/anchore/modcompat/modcompat/compatibility"
	"github.com/anchore/modcompat/modcompat/epoch"
	"github.com/anchore/modcompat/modcompat/mod"
	"github.com/anchore/modcompat/modcompat/state"
)

// Resolver is the subset of the compatibility resolver needed to build a report.
type Resolver interface {
	Compatibility(m mod.Definition) compatibility.Compatibility
	CurrentVersion() string
	CurrentEpoch() *epoch.Epoch
	State() state.State
}

// Document represents the JSON document to be presented
type Document struct {
	Installed  Installed  `json:"installed"`
	Mods       []Mod      `json:"mods"`
	Descriptor Descriptor `json:"descriptor"`
}

type Installed struct {
	Version string `json:"version"`
	Epoch   string `json:"epoch,omitempty"`
}

type Mod struct {
	Name           string                      `json:"name"`
	Version        string                      `json:"version,omitempty"`
	CompatibleWith string                      `json:"compatibleWith,omitempty"`
	ReleaseDate    string                      `json:"releaseDate"`
	Compatibility  compatibility.Compatibility `json:"compatibility"`
}

// Descriptor describes what created the document as well as surrounding metadata
type Descriptor struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Table   TableStatus `json:"table"`
}

type TableStatus struct {
	Epochs  int        `json:"epochs"`
	ETag    string     `json:"etag,omitempty"`
	Checked *time.Time `json:"checked,omitempty"`
}

// NewDocument resolves every given mod and captures the resolver state the results were computed against.
func NewDocument(r Resolver, mods []*mod.Mod, appName, appVersion string) Document {
	st := r.State()

	installed := Installed{Version: r.CurrentVersion()}
	if current := r.CurrentEpoch(); current != nil {
		installed.Epoch = current.Version().String()
	}

	// always emit a list, even when no mods were given
	rows := make([]Mod, 0, len(mods))
	for _, m := range mods {
		row := Mod{
			Name:          m.Name,
			Version:       m.Version,
			ReleaseDate:   m.Released.Format("2006-01-02"),
			Compatibility: r.Compatibility(m),
		}
		if m.CompatibleWith != nil {
			row.CompatibleWith = m.CompatibleWith.String()
		}
		rows = append(rows, row)
	}

	return Document{
		Installed: installed,
		Mods:      rows,
		Descriptor: Descriptor{
			Name:    appName,
			Version: appVersion,
			Table: TableStatus{
				Epochs:  st.Table.Len(),
				ETag:    st.ETag,
				Checked: st.Checked,
			},
		},
	}
}

// Count returns how many mods resolved to the given compatibility.
func (d Document) Count(c compatibility.Compatibility) int {
	var n int
	for _, m := range d.Mods {
		if m.Compatibility == c {
			n++
		}
	}
	return n
}
