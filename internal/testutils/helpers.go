// Package testutils holds test doubles shared across package tests.
package testutils

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/relux/pkg/domain"
	"github.com/stretchr/testify/require"
)

// Journal records calls across several doubles in global order.
type Journal struct {
	mu    sync.Mutex
	calls []string
}

// Add appends an entry.
func (j *Journal) Add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, s)
}

// Calls returns a copy of the entries so far.
func (j *Journal) Calls() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

// Spy is a subscriber that writes its name to a Journal and returns Err.
type Spy struct {
	Name    string
	Journal *Journal
	Err     error
}

// Handle implements dispatch.Subscriber and state.State.
func (s *Spy) Handle(context.Context, domain.Action) error {
	s.Journal.Add(s.Name)
	return s.Err
}

// RecordingSaga records every action it is applied to.
type RecordingSaga struct {
	SagaName string

	mu   sync.Mutex
	seen []domain.Action
}

// Name implements saga.Saga.
func (r *RecordingSaga) Name() string {
	if r.SagaName == "" {
		return "recorder"
	}
	return r.SagaName
}

// Apply implements saga.Saga.
func (r *RecordingSaga) Apply(_ context.Context, a domain.Action, _ domain.Dispatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, a)
	return nil
}

// Seen returns a copy of the recorded actions.
func (r *RecordingSaga) Seen() []domain.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Action(nil), r.seen...)
}

// Count returns the number of recorded actions.
func (r *RecordingSaga) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

// Closer is anything shut down with a context, such as *relux.Relux.
type Closer interface {
	Close(ctx context.Context) error
}

// CloseT closes c with a one second deadline and fails the test on error.
func CloseT(t *testing.T, c Closer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Close(ctx))
}
