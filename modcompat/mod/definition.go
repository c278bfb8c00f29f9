/*
Package mod describes the mods whose compatibility is resolved. The resolver only depends on the Definition
interface; Mod is the concrete definition read from mod list files.
*/
package mod

import (
	"fmt"
	"time"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/anchore/modcompat/modcompat/version"
)

// Definition is the read-only view of a mod needed to resolve its compatibility.
type Definition interface {
	// ID uniquely identifies the definition, it is used as the key for memoized results.
	ID() string
	// ParsedCompatibleWith is the application version the mod explicitly declares compatibility with (nil when undeclared).
	ParsedCompatibleWith() *version.Version
	// ReleaseDate is when this version of the mod was released.
	ReleaseDate() time.Time
}

var _ Definition = (*Mod)(nil)

type Mod struct {
	Name           string
	Version        string
	CompatibleWith *version.Version
	Released       time.Time
}

// New creates a mod definition. An empty compatibleWith means the mod does not declare a target version.
func New(name, modVersion, compatibleWith string, released time.Time) (*Mod, error) {
	if name == "" {
		return nil, fmt.Errorf("mod name is required")
	}

	var parsed *version.Version
	if compatibleWith != "" {
		var err error
		parsed, err = version.Parse(compatibleWith)
		if err != nil {
			return nil, fmt.Errorf("mod %q has bad compatibleWith value: %w", name, err)
		}
	}

	return &Mod{
		Name:           name,
		Version:        modVersion,
		CompatibleWith: parsed,
		Released:       released.UTC(),
	}, nil
}

// ID is derived from the current field values on every call, the receiver is never written.
func (m *Mod) ID() string {
	return fingerprint(m)
}

func (m *Mod) ParsedCompatibleWith() *version.Version {
	return m.CompatibleWith
}

func (m *Mod) ReleaseDate() time.Time {
	return m.Released
}

func (m *Mod) String() string {
	if m.Version == "" {
		return m.Name
	}
	return fmt.Sprintf("%s@%s", m.Name, m.Version)
}

func fingerprint(m *Mod) string {
	identity := struct {
		Name           string
		Version        string
		CompatibleWith string
		Released       string
	}{
		Name:     m.Name,
		Version:  m.Version,
		Released: m.Released.UTC().Format(time.RFC3339),
	}
	if m.CompatibleWith != nil {
		identity.CompatibleWith = m.CompatibleWith.String()
	}

	f, err := hashstructure.Hash(&identity, hashstructure.FormatV2, &hashstructure.HashOptions{
		ZeroNil: true,
	})
	if err != nil {
		// all fields are strings, hashing cannot fail; fall back to the readable identity regardless
		return fmt.Sprintf("%s|%s|%s|%s", identity.Name, identity.Version, identity.CompatibleWith, identity.Released)
	}
	return fmt.Sprintf("%x", f)
}
