package ui

import (
	"encoding/json"
	"io"
)

// Severity classifies the visual weight of a piece of inline text.
type Severity uint8

const (
	SeverityInfo     Severity = iota // plain
	SeveritySuccess                  // green: found, confirmed
	SeverityWarn                     // yellow: not set, skipped
	SeverityError                    // red: failed
	SeverityCritical                 // bold: review before signing
)

// StyledText pairs a plain string with a Severity annotation. It marshals
// to JSON as the plain string.
type StyledText struct {
	Text     string
	Severity Severity
}

func (s StyledText) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Text)
}

func Plain(s string) StyledText { return StyledText{Text: s} }
func Good(s string) StyledText { return StyledText{Text: s, Severity: SeveritySuccess} }
func Attention(s string) StyledText { return StyledText{Text: s, Severity: SeverityWarn} }
func Bad(s string) StyledText { return StyledText{Text: s, Severity: SeverityError} }

// UI is every bit of terminal interaction a command does.
//
// Production code uses TerminalUI. Tests use RecordingUI, which captures
// output and serves scripted answers to Confirm and Secret.
type UI interface {
	// Style renders t with the colour of its Severity. Without colours the
	// plain text is returned.
	Style(t StyledText) string

	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	// Error does not exit; callers decide what happens next.
	Error(format string, args ...any)
	// Critical is for data the user must review before signing, and for
	// proof of what was just sent.
	Critical(format string, args ...any)

	// Section writes a separator centred around title.
	Section(title string)

	// KeyValue renders label/value rows with values aligned.
	KeyValue(rows [][2]string)

	// Table renders a bordered table. A nil headers slice renders no
	// header row.
	Table(headers []string, rows [][]string)

	// Spinner shows msg until the returned stop function is called.
	Spinner(msg string) func()

	Confirm(prompt string, defaultYes bool) bool

	// Secret reads a line without echoing it, for keystore passwords.
	Secret(prompt string) (string, error)

	// Indent returns a child UI one level deeper that shares the parent's
	// writer and reader.
	Indent() UI

	// Writer prepends the current indentation to every line written.
	Writer() io.Writer
}
