package domain

import (
	"context"
	"reflect"
)

// Action describes something that happened. Any immutable value can be an action;
// identity is structural (type plus payload), never by reference.
type Action any

// Named is implemented by actions that want a stable diagnostic name instead of
// the one derived from their Go type.
type Named interface {
	ActionName() string
}

// Dispatch routes an action into the pipeline.
type Dispatch func(ctx context.Context, action Action) error

// ActionName returns the diagnostic name of an action.
// Named actions win; otherwise the package-qualified Go type name is used
// (pointers are unwrapped, e.g. "counter.Increment").
func ActionName(action Action) string {
	if action == nil {
		return "<nil>"
	}
	if n, ok := action.(Named); ok {
		return n.ActionName()
	}
	t := reflect.TypeOf(action)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}
