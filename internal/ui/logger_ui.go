package ui

import (
	"io"

	"github.com/wagoodman/go-partybus"

	"github.com/anchore/modcompat/internal/log"
	"github.com/anchore/modcompat/modcompat/event"
)

type loggerUI struct {
	unsubscribe  func() error
	reportOutput io.Writer
}

// NewLoggerUI writes all events to the common application logger and writes the final report to the given writer.
func NewLoggerUI(reportWriter io.Writer) UI {
	return &loggerUI{
		reportOutput: reportWriter,
	}
}

func (l *loggerUI) Setup(unsubscribe func() error) error {
	l.unsubscribe = unsubscribe
	return nil
}

func (l loggerUI) Handle(e partybus.Event) error {
	switch e.Type {
	case event.CompatibilityTableUpdateStarted:
		if err := handleCompatibilityTableUpdateStarted(e); err != nil {
			log.Warnf("unable to show table update started event: %+v", err)
		}
		return nil
	case event.CompatibilityTableRefreshed:
		if err := handleCompatibilityTableRefreshed(e); err != nil {
			log.Warnf("unable to show table refreshed event: %+v", err)
		}
		return nil
	case event.NonRootCommandFinished:
		if err := handleNonRootCommandFinished(e, l.reportOutput); err != nil {
			log.Warnf("unable to show command finished event: %+v", err)
		}
	default:
		return nil
	}

	// this is the last expected event, stop listening to events
	return l.unsubscribe()
}

func (l loggerUI) Teardown(_ bool) error {
	return nil
}
