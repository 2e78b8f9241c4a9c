// Package reporter implements the three result reporters (SPEC_FULL
// §4.13): console, json, and html. Each consumes []trace.Result after
// SessionEngine.Execute returns and trace.FromDone has classified it.
package reporter

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/quickstrom/quickstrom-go/internal/diff"
	"github.com/quickstrom/quickstrom-go/internal/jsonvalue"
	"github.com/quickstrom/quickstrom-go/internal/trace"
	"github.com/quickstrom/quickstrom-go/internal/wire"
)

var (
	passedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")).Bold(true)
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")).Bold(true)
	erroredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8a8a8a"))

	selectorStyle = lipgloss.NewStyle().Bold(true)
	addedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	removedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
	modifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

// Console styles pass/fail/error lines and transition summaries,
// honoring --color (auto probes isatty on out).
type Console struct {
	out   io.Writer
	color string // "auto" | "always" | "no"
}

func NewConsole(out io.Writer, color string) *Console {
	return &Console{out: out, color: color}
}

func (c *Console) colorEnabled() bool {
	switch c.color {
	case "always":
		return true
	case "no":
		return false
	default:
		if f, ok := c.out.(interface{ Fd() uintptr }); ok {
			return isatty.IsTerminal(f.Fd())
		}
		return false
	}
}

// Report writes one line per result, followed by that result's
// transitions and their element diffs, plus a final summary.
func (c *Console) Report(results []trace.Result) error {
	plain := !c.colorEnabled()

	var passed, failed, errored int
	for _, r := range results {
		line, err := c.line(r, plain)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(c.out, line); err != nil {
			return err
		}
		for i, t := range transitionsOf(r) {
			if err := c.printTransition(i+1, t, plain); err != nil {
				return err
			}
		}
		switch r.Kind {
		case trace.KindPassed:
			passed++
		case trace.KindFailed:
			failed++
		case trace.KindErrored:
			errored++
		}
	}

	summary := fmt.Sprintf("%d passed, %d failed, %d errored", passed, failed, errored)
	if !plain {
		summary = mutedStyle.Render(summary)
	}
	_, err := fmt.Fprintln(c.out, summary)
	return err
}

func transitionsOf(r trace.Result) []trace.Transition {
	switch r.Kind {
	case trace.KindPassed:
		if len(r.Passed) > 0 {
			return r.Passed[0].Transitions
		}
	case trace.KindFailed:
		if r.Failed != nil {
			return r.Failed.Transitions
		}
	}
	return nil
}

// printTransition renders one transition's actions followed by a
// per-selector, per-element diff against the previous state, in the
// style of the original console reporter's print_state_diff: elements
// are prefixed by +/-/~/* for added/removed/modified/unmodified, with
// changed field values shown old -> new.
func (c *Console) printTransition(n int, t trace.Transition, plain bool) error {
	label := fmt.Sprintf("%d. %s", n, actionsLabel(t.Actions))
	if t.Stutter {
		label += " (stutter)"
	}
	if _, err := fmt.Fprintln(c.out, indent(label, 1)); err != nil {
		return err
	}

	selectors := make([]string, 0, len(t.Diff))
	for sel := range t.Diff {
		selectors = append(selectors, sel)
	}
	sort.Strings(selectors)

	for _, sel := range selectors {
		heading := sel
		if !plain {
			heading = selectorStyle.Render(sel)
		}
		if _, err := fmt.Fprintln(c.out, indent(heading, 2)); err != nil {
			return err
		}
		for _, d := range t.Diff[sel] {
			for _, line := range elementLines(d, plain) {
				if _, err := fmt.Fprintln(c.out, indent(line, 3)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func actionsLabel(actions []wire.Action) string {
	if len(actions) == 0 {
		return "State"
	}
	names := make([]string, len(actions))
	for i, a := range actions {
		label := "Action"
		if a.IsEvent {
			label = "Event"
		}
		names[i] = fmt.Sprintf("%s: %s", label, a.ID)
	}
	out := names[0]
	for _, n := range names[1:] {
		out += ", " + n
	}
	return out
}

// elementLines renders one element diff entry as a prefix/ref line
// followed by one line per changed field (Modified only).
func elementLines(d diff.Diff[wire.ElementState], plain bool) []string {
	ref := diff.ElementRef(d)
	var prefix, style string
	switch d.Kind {
	case diff.KindAdded:
		prefix, style = "+ Element", "added"
	case diff.KindRemoved:
		prefix, style = "- Element", "removed"
	case diff.KindModified:
		prefix, style = "~ Element", "modified"
	default:
		prefix, style = "* Element", ""
	}

	head := fmt.Sprintf("%s (%s)", prefix, ref)
	if !plain {
		head = renderStyle(style, head)
	}
	lines := []string{head}

	if d.Kind == diff.KindModified {
		lines = append(lines, changedFields(d.Old, d.New, plain)...)
	}
	return lines
}

func changedFields(old, new wire.ElementState, plain bool) []string {
	var lines []string
	for _, key := range sortedKeys(new) {
		if key == "ref" || key == "position" {
			continue
		}
		nv := new[key]
		ov, existed := old[key]
		if existed && jsonvalue.Equal(ov, nv) {
			continue
		}
		text := fmt.Sprintf("%s: %s -> %s", key, renderValue(ov, existed), renderValue(nv, true))
		if !plain {
			text = modifiedStyle.Render(text)
		}
		lines = append(lines, indent(text, 1))
	}
	return lines
}

func sortedKeys(e wire.ElementState) []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func renderValue(v jsonvalue.Value, present bool) string {
	if !present {
		return "<absent>"
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return "<unprintable>"
	}
	return string(data)
}

func renderStyle(name, s string) string {
	switch name {
	case "added":
		return addedStyle.Render(s)
	case "removed":
		return removedStyle.Render(s)
	case "modified":
		return modifiedStyle.Render(s)
	default:
		return dimStyle.Render(s)
	}
}

func indent(s string, level int) string {
	pad := ""
	for i := 0; i < level; i++ {
		pad += "  "
	}
	return pad + s
}

func (c *Console) line(r trace.Result, plain bool) (string, error) {
	switch r.Kind {
	case trace.KindPassed:
		transitions := 0
		if len(r.Passed) > 0 {
			transitions = len(r.Passed[0].Transitions)
		}
		text := fmt.Sprintf("PASS  %d transitions", transitions)
		if plain {
			return text, nil
		}
		return passedStyle.Render(text), nil

	case trace.KindFailed:
		transitions := 0
		if r.Failed != nil {
			transitions = len(r.Failed.Transitions)
		}
		text := fmt.Sprintf("FAIL  %d transitions", transitions)
		if plain {
			return text, nil
		}
		return failedStyle.Render(text), nil

	case trace.KindErrored:
		text := fmt.Sprintf("ERROR %s (%d tests completed)", r.Error, r.Tests)
		if plain {
			return text, nil
		}
		return erroredStyle.Render(text), nil

	default:
		return "", fmt.Errorf("reporter: unknown result kind %d", r.Kind)
	}
}
