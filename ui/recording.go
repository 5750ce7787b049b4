package ui

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Entry is one recorded UI call.
type Entry struct {
	Method string
	Value  string
}

// recordingState is shared between a RecordingUI and its Indent children
// so they append to one log and consume one input queue.
type recordingState struct {
	entries []Entry
	inputs  []string
	next    int
	buf     bytes.Buffer
}

// RecordingUI captures output for tests. Confirm and Secret consume the
// scripted inputs in order and panic when none are left.
type RecordingUI struct {
	state       *recordingState
	indentLevel int
}

func NewRecordingUI(scriptedInputs ...string) *RecordingUI {
	return &RecordingUI{state: &recordingState{inputs: scriptedInputs}}
}

func (r *RecordingUI) record(method, value string) {
	r.state.entries = append(r.state.entries, Entry{Method: method, Value: value})
}

func (r *RecordingUI) nextInput(caller string) string {
	if r.state.next >= len(r.state.inputs) {
		panic(fmt.Sprintf("RecordingUI: no scripted input left for %s (consumed %d so far)", caller, r.state.next))
	}
	input := r.state.inputs[r.state.next]
	r.state.next++
	return input
}

func (r *RecordingUI) Style(t StyledText) string { return t.Text }

func (r *RecordingUI) Info(format string, args ...any) {
	r.record("Info", fmt.Sprintf(format, args...))
}

func (r *RecordingUI) Success(format string, args ...any) {
	r.record("Success", fmt.Sprintf(format, args...))
}

func (r *RecordingUI) Warn(format string, args ...any) {
	r.record("Warn", fmt.Sprintf(format, args...))
}

func (r *RecordingUI) Error(format string, args ...any) {
	r.record("Error", fmt.Sprintf(format, args...))
}

func (r *RecordingUI) Critical(format string, args ...any) {
	r.record("Critical", fmt.Sprintf(format, args...))
}

func (r *RecordingUI) Section(title string) { r.record("Section", title) }

// KeyValue records each row as "label: value".
func (r *RecordingUI) KeyValue(rows [][2]string) {
	for _, row := range rows {
		r.record("KeyValue", row[0]+": "+row[1])
	}
}

// Table records each row with cells joined by " | ".
func (r *RecordingUI) Table(headers []string, rows [][]string) {
	for _, row := range rows {
		r.record("Table", strings.Join(row, " | "))
	}
}

func (r *RecordingUI) Spinner(msg string) func() {
	r.record("Spinner", msg)
	return func() {}
}

// Confirm accepts "y"/"yes" and "n"/"no"; "" takes the default.
func (r *RecordingUI) Confirm(prompt string, defaultYes bool) bool {
	r.record("Confirm", prompt)
	switch strings.ToLower(strings.TrimSpace(r.nextInput("Confirm"))) {
	case "":
		return defaultYes
	case "y", "yes":
		return true
	}
	return false
}

func (r *RecordingUI) Secret(prompt string) (string, error) {
	r.record("Secret", prompt)
	return r.nextInput("Secret"), nil
}

func (r *RecordingUI) Indent() UI {
	return &RecordingUI{state: r.state, indentLevel: r.indentLevel + 1}
}

func (r *RecordingUI) Writer() io.Writer { return &r.state.buf }

func (r *RecordingUI) Entries() []Entry { return r.state.entries }

// Messages returns the values recorded by method.
func (r *RecordingUI) Messages(method string) []string {
	var out []string
	for _, e := range r.state.entries {
		if e.Method == method {
			out = append(out, e.Value)
		}
	}
	return out
}

// HasMessage reports whether any entry contains substr, ignoring case.
func (r *RecordingUI) HasMessage(substr string) bool {
	lower := strings.ToLower(substr)
	for _, e := range r.state.entries {
		if strings.Contains(strings.ToLower(e.Value), lower) {
			return true
		}
	}
	return false
}

// Output is everything written to Writer().
func (r *RecordingUI) Output() string { return r.state.buf.String() }
