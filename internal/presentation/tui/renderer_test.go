package tui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/relux/internal/presentation/tui"
	"github.com/aretw0/relux/pkg/domain"
	"github.com/aretw0/relux/pkg/relay"
	"github.com/aretw0/relux/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pressure struct {
	Value int
	Unit  string
}

func TestSnapshotTable(t *testing.T) {
	c := state.New(pressure{Value: 3, Unit: "a|b"}, func(s pressure, _ domain.Action) pressure { return s })
	rl := relay.New[pressure](c)
	defer rl.Close()

	table := tui.SnapshotTable([]relay.Observable{rl})
	lines := strings.Split(strings.TrimSpace(table), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "| Relay | Snapshot |", lines[0])
	assert.Contains(t, lines[2], "tui_test.pressure")
	assert.Contains(t, lines[2], `{"Value":3,"Unit":"a\|b"}`)
}

func TestPlainPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := tui.NewPlainPrinter(&buf)
	assert.False(t, p.Rich())

	require.NoError(t, p.Snapshots("State", nil))
	assert.Equal(t, "### State\n\n| Relay | Snapshot |\n|---|---|\n", buf.String())
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
}
