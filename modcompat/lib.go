/*
Package modcompat resolves whether mods are compatible with the installed version of the host application, using a
remotely maintained table of compatibility epochs.
*/
package modcompat

import (
	"github.com/wagoodman/go-partybus"

	"github.com/anchore/modcompat/internal/bus"
	"github.com/anchore/modcompat/internal/log"
	"github.com/anchore/modcompat/modcompat/logger"
)

// SetLogger sets the logger object used for all modcompat logging calls.
func SetLogger(logger logger.Logger) {
	log.Log = logger
}

// SetBus sets the event bus for all modcompat library bus publish events onto (in-library subscriptions are not allowed).
func SetBus(b *partybus.Bus) {
	bus.SetPublisher(b)
}
