package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/relux"
)

// Topology is the wiring of one relux instance at an instant.
type Topology struct {
	States       []string
	Sagas        []string
	Relays       []string
	ActionRelays []string
}

// Inspect captures r's current wiring.
func Inspect(r *relux.Relux) Topology {
	t := Topology{
		States:       r.Store().StateNames(),
		Sagas:        r.Root().Names(),
		ActionRelays: r.Store().ActionRelayNames(),
	}
	for _, rl := range r.Relays() {
		t.Relays = append(t.Relays, rl.Key().String())
	}
	return t
}

// GenerateMermaid produces a Mermaid flowchart of the action flow.
// Shapes:
// - Dispatcher: ((Circle))
// - Saga: [[Subroutine]]
// - Relay: [/Parallelogram/]
// - State: [Rectangle]
// Relays hang off the Store, which owns their registry.
func GenerateMermaid(t Topology) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("    dispatcher((\"Dispatcher\"))\n")
	sb.WriteString("    dispatcher --> store[\"Store\"]\n")
	sb.WriteString("    dispatcher --> root[\"Root\"]\n")

	for i, name := range t.States {
		id := fmt.Sprintf("state_%d", i)
		sb.WriteString(fmt.Sprintf("    store --> %s[\"%s\"]\n", id, label(name)))
	}
	for i, name := range t.Sagas {
		id := fmt.Sprintf("saga_%d", i)
		sb.WriteString(fmt.Sprintf("    root --> %s[[\"%s\"]]\n", id, label(name)))
		// Sagas dispatch back into the flow.
		sb.WriteString(fmt.Sprintf("    %s -.-> dispatcher\n", id))
	}
	for i, name := range t.Relays {
		id := fmt.Sprintf("relay_%d", i)
		sb.WriteString(fmt.Sprintf("    store -- snapshot --> %s[/\"%s\"/]\n", id, label(name)))
	}
	for i, name := range t.ActionRelays {
		id := fmt.Sprintf("actions_%d", i)
		sb.WriteString(fmt.Sprintf("    store -. action .-> %s[/\"%s\"/]\n", id, label(name)))
	}
	return sb.String()
}

// label shortens a type name to its last path element and makes it safe
// inside a quoted Mermaid label.
func label(name string) string {
	prefix := ""
	if strings.HasPrefix(name, "*") {
		prefix, name = "*", name[1:]
	}
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return prefix + strings.ReplaceAll(name, "\"", "'")
}
