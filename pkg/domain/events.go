package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventDispatch        EventType = "dispatch"
	EventSubscriberError EventType = "subscriber_error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// DispatchEvent reports one completed fan-out.
type DispatchEvent struct {
	EventBase
	Action      string        `json:"action"`
	Duration    time.Duration `json:"duration"`
	Subscribers int           `json:"subscribers"`
	Err         error         `json:"-"`
}

// SubscriberErrorEvent reports a subscriber that failed while handling an action.
type SubscriberErrorEvent struct {
	EventBase
	Action     string `json:"action"`
	Subscriber string `json:"subscriber"`
	Err        error  `json:"-"`
}

// LifecycleHooks defines callbacks for dispatch observability.
// Hooks run on the dispatching goroutine and must not block.
type LifecycleHooks struct {
	OnDispatch        func(context.Context, *DispatchEvent)
	OnSubscriberError func(context.Context, *SubscriberErrorEvent)
}
