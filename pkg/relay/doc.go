/*
Package relay exposes state to the outside world, read-only.

A Relay is bound to one snapshot producer. Its Current value is set at
construction and it republishes each distinct snapshot afterwards. It is the
only path by which observers see state; nothing on a relay can mutate the
state it mirrors.

An ActionRelay is the event-shaped counterpart: it forwards dispatched
actions of one type to observers.
*/
package relay
