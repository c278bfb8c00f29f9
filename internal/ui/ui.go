package ui

import (
	"github.com/wagoodman/go-partybus"
)

// UI consumes events from the bus for the lifetime of a command.
type UI interface {
	Setup(unsubscribe func() error) error
	partybus.Handler
	Teardown(force bool) error
}
