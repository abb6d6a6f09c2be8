package courses

import (
	"fmt"

	"courseledger/core/events"
	"courseledger/core/types"
)

// EventTypeCourseIssued is emitted when a creator issues a new course credential.
const EventTypeCourseIssued = "courses.issued"

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

// CourseIssuedEvent returns the structured payload for an issuance announcement.
func CourseIssuedEvent(id uint64, creator string, title string, price string, reward string) *types.Event {
	return &types.Event{
		Type: EventTypeCourseIssued,
		Attributes: map[string]string{
			"id":      fmt.Sprintf("%d", id),
			"creator": creator,
			"title":   title,
			"price":   price,
			"reward":  reward,
		},
	}
}
