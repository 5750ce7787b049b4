package util

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/bnames/errs"
	"github.com/tranvictor/bnames/networks"
	"github.com/tranvictor/bnames/resolution"
	"github.com/tranvictor/bnames/ui"
	"github.com/tranvictor/bnames/workflow"
)

// ReportError prints err with every piece of context it carries.
func ReportError(u ui.UI, err error) {
	var e *errs.Error
	if !errors.As(err, &e) {
		u.Error("Error: %s", err)
		return
	}
	u.Error("Error (%s): %s", e.Kind, err)
	rows := [][2]string{}
	add := func(label, value string) {
		if value != "" {
			rows = append(rows, [2]string{label, value})
		}
	}
	add("Operation", e.Op)
	add("Network", e.Network)
	add("Node", e.Node)
	add("Contract", e.Contract)
	add("Endpoint", e.Endpoint)
	add("Reason", e.Reason)
	if len(rows) > 0 {
		u.Indent().KeyValue(rows)
	}
	if e.Retryable() {
		u.Info("This error is transient, running the command again may succeed.")
	}
}

// PrintRecord shows a resolution answer. A record that is not set is a
// warning, not an error.
func PrintRecord(u ui.UI, rec resolution.Record) {
	rows := [][2]string{}
	if rec.Name != "" {
		rows = append(rows, [2]string{"Name", rec.Name})
	}
	if rec.Node != (common.Hash{}) {
		rows = append(rows, [2]string{"Node", rec.Node.Hex()})
	}
	if rec.Kind == resolution.KindPrimaryName {
		rows = append(rows, [2]string{"Address", rec.Address.Hex()})
	}
	if rec.Resolver != (common.Address{}) {
		rows = append(rows, [2]string{"Resolver", rec.Resolver.Hex()})
	}
	rows = append(rows, [2]string{"Source", string(rec.Source)})

	if !rec.Found {
		u.KeyValue(rows)
		u.Warn("No %s record is set.", rec.Kind)
		return
	}
	switch rec.Kind {
	case resolution.KindAddress:
		rows = append(rows, [2]string{"Address", u.Style(ui.Good(rec.Address.Hex()))})
	case resolution.KindResolver:
		if rec.Resolver == (common.Address{}) {
			rows = append(rows, [2]string{"Resolver", u.Style(ui.Good(rec.Address.Hex()))})
		}
	default:
		rows = append(rows, [2]string{"Value", u.Style(ui.Good(rec.Value))})
	}
	u.KeyValue(rows)
}

// PrintTx reports a write. Dry runs say that nothing was sent.
func PrintTx(u ui.UI, n networks.Network, action string, hash common.Hash, dryRun bool) {
	if dryRun {
		u.Success("%s: simulation passed, nothing was sent (dry run).", action)
		return
	}
	u.Success("%s: confirmed.", action)
	u.Critical("Tx: %s", n.TxURL(hash))
}

func styledStatus(s workflow.Status) ui.StyledText {
	switch s {
	case workflow.StatusSubmitted, workflow.StatusNoop:
		return ui.Good(string(s))
	case workflow.StatusFailed:
		return ui.Bad(string(s))
	case workflow.StatusSkipped, workflow.StatusPlanned:
		return ui.Attention(string(s))
	}
	return ui.Plain(string(s))
}

// PrintStages renders a workflow result as one row per stage followed by
// its warnings.
func PrintStages(u ui.UI, n networks.Network, res workflow.Result) {
	rows := make([][]string, 0, len(res.Stages))
	for _, s := range res.Stages {
		tx := ""
		if s.TxHash != (common.Hash{}) {
			tx = s.TxHash.Hex()
		}
		detail := s.Detail
		if detail == "" && s.Err != nil && !errs.IsKind(s.Err, errs.KindReverseWarning) {
			detail = s.Err.Error()
		}
		rows = append(rows, []string{string(s.Stage), u.Style(styledStatus(s.Status)), tx, detail})
	}
	u.Table([]string{"Stage", "Status", "Tx", "Detail"}, rows)

	for _, w := range res.Warnings() {
		u.Warn("Warning: %s", w)
	}
	if res.Success {
		u.Success("%s (%s) named.", res.FullName, n.Name)
		for _, s := range res.Stages {
			if s.TxHash != (common.Hash{}) {
				u.Info("%s: %s", s.Stage, n.TxURL(s.TxHash))
			}
		}
	}
}

// Plural is a tiny helper for counts in messages.
func Plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
