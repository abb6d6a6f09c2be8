package checkin

import (
	"fmt"

	"courseledger/core/events"
	"courseledger/core/types"
)

const (
	// EventTypeCheckInCompleted is emitted once per accepted daily check-in.
	EventTypeCheckInCompleted = "checkin.completed"
	// EventTypeExperienceGranted is emitted when a check-in credits experience.
	EventTypeExperienceGranted = "checkin.experience"
	// EventTypeParamsUpdated is emitted when the reward schedule changes.
	EventTypeParamsUpdated = "checkin.params.updated"
	// EventTypeAuthorizerRotated is emitted when the trusted authorizer changes.
	EventTypeAuthorizerRotated = "checkin.authorizer.rotated"
)

// ExperienceReasonDailyCheckIn labels experience granted by the daily ledger.
const ExperienceReasonDailyCheckIn = "daily-check-in"

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

// CheckInCompletedEvent returns the structured payload announcing an accepted check-in.
func CheckInCompletedEvent(user string, timestamp int64, day uint64, reward uint64, message string) *types.Event {
	return &types.Event{
		Type: EventTypeCheckInCompleted,
		Attributes: map[string]string{
			"user":      user,
			"timestamp": fmt.Sprintf("%d", timestamp),
			"day":       fmt.Sprintf("%d", day),
			"reward":    fmt.Sprintf("%d", reward),
			"message":   message,
		},
	}
}

// ExperienceGrantedEvent returns the structured payload for an experience credit.
func ExperienceGrantedEvent(user string, amount uint64, total uint64, reason string) *types.Event {
	return &types.Event{
		Type: EventTypeExperienceGranted,
		Attributes: map[string]string{
			"user":   user,
			"amount": fmt.Sprintf("%d", amount),
			"total":  fmt.Sprintf("%d", total),
			"reason": reason,
		},
	}
}

// ParamsUpdatedEvent announces a reward-schedule change.
func ParamsUpdatedEvent(params Params) *types.Event {
	return &types.Event{
		Type: EventTypeParamsUpdated,
		Attributes: map[string]string{
			"baseDailyReward":    fmt.Sprintf("%d", params.BaseDailyReward),
			"perDayBonus":        fmt.Sprintf("%d", params.PerDayBonus),
			"maxConsecutiveDays": fmt.Sprintf("%d", params.MaxConsecutiveDays),
		},
	}
}

// AuthorizerRotatedEvent announces a trusted-authorizer rotation.
func AuthorizerRotatedEvent(authorizer string) *types.Event {
	return &types.Event{
		Type: EventTypeAuthorizerRotated,
		Attributes: map[string]string{
			"authorizer": authorizer,
		},
	}
}
