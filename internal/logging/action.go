package logging

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/aretw0/relux/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// ActionLogger writes every dispatched action to a slog.Logger together with
// a structured description of its payload.
type ActionLogger struct {
	logger *slog.Logger
	level  slog.Level
}

// NewActionLogger creates an action logger writing at level.
func NewActionLogger(logger *slog.Logger, level slog.Level) *ActionLogger {
	return &ActionLogger{logger: logger, level: level}
}

// LogAction records the action.
func (l *ActionLogger) LogAction(ctx context.Context, action domain.Action) {
	if !l.logger.Enabled(ctx, l.level) {
		return
	}
	l.logger.Log(ctx, l.level, "action dispatched",
		"action", domain.ActionName(action),
		slog.Any("payload", Describe(action)),
	)
}

// NopActionLogger discards every action.
type NopActionLogger struct{}

// LogAction implements the dispatch logger boundary.
func (NopActionLogger) LogAction(context.Context, domain.Action) {}

// Describe flattens an action into loggable data.
// Structs (and pointers to structs) become a field map; anything else is
// returned as its printed value. Unexported fields are skipped.
func Describe(action domain.Action) any {
	if action == nil {
		return nil
	}
	v := reflect.ValueOf(action)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return fmt.Sprint(v.Interface())
	}
	if v.NumField() == 0 {
		return map[string]any{}
	}

	out := make(map[string]any)
	if err := mapstructure.Decode(v.Interface(), &out); err != nil {
		return fmt.Sprintf("%+v", v.Interface())
	}
	return out
}
