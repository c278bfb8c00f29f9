package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wagoodman/go-partybus"

	"github.com/anchore/modcompat/internal/bus"
	"github.com/anchore/modcompat/modcompat/event"
)

// workerOutcome is everything a command worker produced: its errors and the final report (if any).
type workerOutcome struct {
	errs   []error
	report string
}

// captureReports routes library events onto a fresh bus for the duration of the test.
func captureReports(t *testing.T) *partybus.Subscription {
	t.Helper()
	testBus := partybus.NewBus()
	subscription := testBus.Subscribe()
	bus.SetPublisher(testBus)
	t.Cleanup(func() {
		bus.SetPublisher(nil)
		testBus.Close()
	})
	return subscription
}

func drainWorker(t *testing.T, errs <-chan error, subscription *partybus.Subscription, expectReport bool) workerOutcome {
	t.Helper()

	var outcome workerOutcome
	events := subscription.Events()
	reported := false
	timeout := time.After(10 * time.Second)

	for errs != nil || (expectReport && !reported) {
		select {
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			outcome.errs = append(outcome.errs, err)
		case e := <-events:
			if e.Type != event.NonRootCommandFinished {
				continue
			}
			report, ok := e.Value.(string)
			require.True(t, ok)
			outcome.report = report
			reported = true
		case <-timeout:
			t.Fatal("worker did not finish")
		}
	}
	return outcome
}
