package bus

import (
	"github.com/wagoodman/go-partybus"

	"github.com/anchore/modcompat/modcompat/event"
)

// Report publishes the final output of a CLI command, which signals the UI that no further events are expected.
func Report(report string) {
	Publish(partybus.Event{
		Type:  event.NonRootCommandFinished,
		Value: report,
	})
}
