/*
Package parsers provides parser helpers to extract payloads for each event type that the modcompat library publishes
onto the event bus.
*/
package parsers

import (
	"fmt"

	"github.com/wagoodman/go-partybus"
	"github.com/wagoodman/go-progress"

	"github.com/anchore/modcompat/modcompat/distribution"
	"github.com/anchore/modcompat/modcompat/event"
)

type ErrBadPayload struct {
	Type  partybus.EventType
	Field string
	Value interface{}
}

func (e *ErrBadPayload) Error() string {
	return fmt.Sprintf("event='%s' has bad event payload field='%v': '%+v'", string(e.Type), e.Field, e.Value)
}

func newPayloadErr(t partybus.EventType, field string, value interface{}) error {
	return &ErrBadPayload{
		Type:  t,
		Field: field,
		Value: value,
	}
}

func checkEventType(actual, expected partybus.EventType) error {
	if actual != expected {
		return newPayloadErr(expected, "Type", actual)
	}
	return nil
}

func ParseCompatibilityTableUpdateStarted(e partybus.Event) (progress.StagedProgressable, error) {
	if err := checkEventType(e.Type, event.CompatibilityTableUpdateStarted); err != nil {
		return nil, err
	}

	prog, ok := e.Value.(progress.StagedProgressable)
	if !ok {
		return nil, newPayloadErr(e.Type, "Value", e.Value)
	}

	return prog, nil
}

func ParseCompatibilityTableRefreshed(e partybus.Event) (*distribution.Result, error) {
	if err := checkEventType(e.Type, event.CompatibilityTableRefreshed); err != nil {
		return nil, err
	}

	result, ok := e.Value.(distribution.Result)
	if !ok {
		return nil, newPayloadErr(e.Type, "Value", e.Value)
	}

	return &result, nil
}

func ParseNonRootCommandFinished(e partybus.Event) (*string, error) {
	if err := checkEventType(e.Type, event.NonRootCommandFinished); err != nil {
		return nil, err
	}

	result, ok := e.Value.(string)
	if !ok {
		return nil, newPayloadErr(e.Type, "Value", e.Value)
	}

	return &result, nil
}
