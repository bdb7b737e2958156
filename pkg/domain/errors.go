package domain

import "errors"

// ErrAlreadyBound is returned when a second coordinating instance is bound while one is live.
var ErrAlreadyBound = errors.New("relux instance already bound")

// ErrDuplicateKey is returned when a type key is registered twice.
var ErrDuplicateKey = errors.New("type key already registered")

// ErrDuplicateRelay is returned when a relay for an already claimed type is connected.
var ErrDuplicateRelay = errors.New("relay already connected")

// ErrStateConnected is returned when a state of the same concrete type is already connected.
var ErrStateConnected = errors.New("state already connected")

// ErrStateNotConnected is returned when disconnecting a state that is not connected.
var ErrStateNotConnected = errors.New("state not connected")

// ErrSagaConnected is returned when the same saga instance is connected twice.
var ErrSagaConnected = errors.New("saga already connected")

// ErrSagaNotConnected is returned when disconnecting a saga that is not connected.
var ErrSagaNotConnected = errors.New("saga not connected")

// ErrLoggerRequired is returned when a dispatcher is built without an action logger.
var ErrLoggerRequired = errors.New("action logger is required")

// ErrNilAction is returned when dispatching a nil action.
var ErrNilAction = errors.New("nil action")

// ErrReducerPanic wraps a panic recovered while a state handled an action.
var ErrReducerPanic = errors.New("reducer panicked")

// ErrDispatcherClosed is returned when dispatching asynchronously after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// ErrSnapshotNotFound is returned by sinks when no snapshot was published under a key.
var ErrSnapshotNotFound = errors.New("snapshot not found")
