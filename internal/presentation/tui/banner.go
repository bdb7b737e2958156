package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the relux banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.EnvColorProfile()
	lines := []struct{ text, color string }{
		{"            _             ", "#818cf8"},
		{"  _ __ ___ | |_   ___  __", "#a78bfa"},
		{" | '__/ _ \\| | | | \\ \\/ /", "#c084fc"},
		{" | | |  __/| | |_| |>  < ", "#e879f9"},
		{" |_|  \\___||_|\\__,_/_/\\_\\", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, out.String(" v"+version).Faint())
	fmt.Fprintln(w)
}
