package ui

import (
	"fmt"
	"io"

	"github.com/wagoodman/go-partybus"

	"github.com/anchore/modcompat/internal/log"
	"github.com/anchore/modcompat/modcompat/event/parsers"
)

func handleCompatibilityTableUpdateStarted(e partybus.Event) error {
	prog, err := parsers.ParseCompatibilityTableUpdateStarted(e)
	if err != nil {
		return fmt.Errorf("bad %s event: %w", e.Type, err)
	}

	log.Debugf("compatibility table update: %s", prog.Stage())
	return nil
}

func handleCompatibilityTableRefreshed(e partybus.Event) error {
	result, err := parsers.ParseCompatibilityTableRefreshed(e)
	if err != nil {
		return fmt.Errorf("bad %s event: %w", e.Type, err)
	}

	if result.Err != nil {
		log.Infof("compatibility table refresh: %s (%v)", result.Outcome, result.Err)
		return nil
	}
	log.Infof("compatibility table refresh: %s", result.Outcome)
	return nil
}

func handleNonRootCommandFinished(e partybus.Event, reportOutput io.Writer) error {
	result, err := parsers.ParseNonRootCommandFinished(e)
	if err != nil {
		return fmt.Errorf("bad %s event: %w", e.Type, err)
	}

	if _, err := reportOutput.Write([]byte(*result)); err != nil {
		return fmt.Errorf("unable to show command report: %w", err)
	}
	return nil
}
