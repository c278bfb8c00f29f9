/*
Package event provides event types for all events that the modcompat library published onto the event bus. By
convention, for each event defined here there should be a corresponding event parser defined in the parsers/ child
package.
*/
package event

import "github.com/wagoodman/go-partybus"

const (
	// CompatibilityTableUpdateStarted is published when a conditional fetch of the epoch table begins. The value is a
	// progress.StagedProgressable.
	CompatibilityTableUpdateStarted partybus.EventType = "modcompat-compatibility-table-update-started"

	// CompatibilityTableRefreshed is published after every refresh attempt. The value is a distribution.Result.
	CompatibilityTableRefreshed partybus.EventType = "modcompat-compatibility-table-refreshed"

	// NonRootCommandFinished carries the final report of a CLI command as a string.
	NonRootCommandFinished partybus.EventType = "modcompat-non-root-command-finished"
)
