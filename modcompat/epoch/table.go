package epoch

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/anchore/modcompat/modcompat/version"
)

// Table is an ordered set of epochs, unique by version and sorted ascending. Tables are never mutated once
// constructed, so they may be shared freely between goroutines.
type Table struct {
	entries []Epoch
}

// NewTable creates a table from the given epochs. When two epochs share a version the later one wins.
func NewTable(entries ...Epoch) Table {
	sorted := make([]Epoch, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].version.LessThan(sorted[j].version)
	})

	unique := make([]Epoch, 0, len(sorted))
	for _, e := range sorted {
		if n := len(unique); n > 0 && unique[n-1].version.Equal(e.version) {
			unique[n-1] = e
			continue
		}
		unique = append(unique, e)
	}

	return Table{entries: unique}
}

func (t Table) Len() int {
	return len(t.entries)
}

func (t Table) IsEmpty() bool {
	return len(t.entries) == 0
}

// Entries returns a copy of all epochs in ascending version order.
func (t Table) Entries() []Epoch {
	entries := make([]Epoch, len(t.entries))
	copy(entries, t.entries)
	return entries
}

func (t Table) Min() *Epoch {
	if t.IsEmpty() {
		return nil
	}
	e := t.entries[0]
	return &e
}

func (t Table) Max() *Epoch {
	if t.IsEmpty() {
		return nil
	}
	e := t.entries[len(t.entries)-1]
	return &e
}

// Floor returns the epoch with the greatest version not exceeding the given version, or nil if the version is below
// the smallest epoch in the table.
func (t Table) Floor(v *version.Version) *Epoch {
	if v == nil {
		return nil
	}

	// index of the first epoch strictly above v
	idx := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].version.GreaterThan(v)
	})
	if idx == 0 {
		return nil
	}

	e := t.entries[idx-1]
	return &e
}

// FloorDate returns the epoch with the greatest version among those effective on or before the given date, or nil
// if no epoch was effective yet.
func (t Table) FloorDate(d time.Time) *Epoch {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if !t.entries[i].effectiveFrom.After(d) {
			e := t.entries[i]
			return &e
		}
	}
	return nil
}

func (t Table) MarshalJSON() ([]byte, error) {
	if t.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.entries)
}

func (t *Table) UnmarshalJSON(data []byte) error {
	var entries []Epoch
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*t = NewTable(entries...)
	return nil
}
