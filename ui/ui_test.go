package ui

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/logrusorgru/aurora"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainTerminal(input string) (*TerminalUI, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &TerminalUI{
		out: buf,
		in:  bufio.NewReader(strings.NewReader(input)),
		au:  aurora.NewAurora(false),
	}, buf
}

func TestTerminalConfirmRepromptsUntilAnswered(t *testing.T) {
	u, buf := plainTerminal("maybe\nY\n")
	assert.True(t, u.Confirm("Register alice?", false))
	assert.Contains(t, buf.String(), "please enter y or n")

	u, _ = plainTerminal("\n")
	assert.False(t, u.Confirm("Transfer?", false))
}

func TestTerminalKeyValueAligns(t *testing.T) {
	u, buf := plainTerminal("")
	u.Indent().KeyValue([][2]string{{"Name", "alice.base.eth"}, {"Resolver", "0xC6d5"}})
	assert.Equal(t, "  Name      alice.base.eth\n  Resolver  0xC6d5\n", buf.String())
}

func TestTerminalTableWidthIgnoresColours(t *testing.T) {
	u, buf := plainTerminal("")
	coloured := aurora.NewAurora(true).Green("no-op").String()
	u.Table([]string{"Stage", "Status"}, [][]string{{"ownership", coloured}, {"reverse", "skipped"}})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[1], "Stage")
	assert.Contains(t, lines[3], "ownership")
	assert.Contains(t, lines[4], "reverse")
}

func TestRecordingUISharesStateWithIndent(t *testing.T) {
	r := NewRecordingUI("n", "pw")
	r.Info("top %d", 1)
	child := r.Indent()
	child.Warn("nested")
	assert.False(t, child.Confirm("sure?", true))
	secret, err := child.Secret("password")
	require.NoError(t, err)
	assert.Equal(t, "pw", secret)

	assert.Equal(t, []string{"top 1"}, r.Messages("Info"))
	assert.True(t, r.HasMessage("NESTED"))
	assert.Len(t, r.Entries(), 4)
	assert.Panics(t, func() { r.Confirm("again?", true) })
}

func TestStyledTextMarshalsPlain(t *testing.T) {
	b, err := Bad("failed").MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"failed"`, string(b))
}
