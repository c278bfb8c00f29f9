package distribution

import (
	"fmt"

	"github.com/anchore/modcompat/modcompat/epoch"
)

// Outcome describes what a single conditional fetch of the compatibility table produced.
type Outcome int

const (
	// Failed means the request could not be completed or the response could not be decoded.
	Failed Outcome = iota
	// Updated means the remote table changed and was decoded successfully.
	Updated
	// NotModified means the stored validator is still current.
	NotModified
	// Unchanged means the server answered with a non-success status that carries no table.
	Unchanged
)

func (o Outcome) String() string {
	switch o {
	case Updated:
		return "updated"
	case NotModified:
		return "not-modified"
	case Unchanged:
		return "unchanged"
	default:
		return "failed"
	}
}

// Result is the outcome of a single conditional fetch. Only an Updated result carries a table and validator.
type Result struct {
	Outcome    Outcome
	Table      epoch.Table
	ETag       string
	StatusCode int
	Err        error
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("Result(outcome=%s status=%d err=%q)", r.Outcome, r.StatusCode, r.Err)
	}
	return fmt.Sprintf("Result(outcome=%s status=%d epochs=%d etag=%q)", r.Outcome, r.StatusCode, r.Table.Len(), r.ETag)
}
