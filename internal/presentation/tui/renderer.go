package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/relux/pkg/relay"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// SnapshotTable renders relays as a markdown table of key and current value.
func SnapshotTable(relays []relay.Observable) string {
	var sb strings.Builder
	sb.WriteString("| Relay | Snapshot |\n|---|---|\n")
	for _, rl := range relays {
		value, err := json.Marshal(rl.Value())
		if err != nil {
			value = []byte(fmt.Sprintf("%v", rl.Value()))
		}
		cell := strings.ReplaceAll(string(value), "|", "\\|")
		sb.WriteString(fmt.Sprintf("| `%s` | `%s` |\n", rl.Key(), cell))
	}
	return sb.String()
}

// Printer writes markdown to a stream, styled when the stream is a terminal
// and verbatim otherwise.
type Printer struct {
	w      io.Writer
	render func(string) (string, error)
}

// NewPrinter returns a Printer for f.
func NewPrinter(f *os.File) *Printer {
	p := &Printer{w: f}
	if term.IsTerminal(int(f.Fd())) {
		p.render = NewRenderer()
	}
	return p
}

// NewPlainPrinter returns a Printer that never styles its output.
func NewPlainPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Rich reports whether output is styled.
func (p *Printer) Rich() bool {
	return p.render != nil
}

// Markdown writes md, rendered if the Printer is rich.
func (p *Printer) Markdown(md string) error {
	if p.render != nil {
		out, err := p.render(md)
		if err != nil {
			return err
		}
		md = out
	}
	_, err := io.WriteString(p.w, md)
	return err
}

// Snapshots writes the snapshot table for relays under a heading.
func (p *Printer) Snapshots(title string, relays []relay.Observable) error {
	return p.Markdown("### " + title + "\n\n" + SnapshotTable(relays))
}
