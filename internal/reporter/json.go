package reporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quickstrom/quickstrom-go/internal/diff"
	"github.com/quickstrom/quickstrom-go/internal/trace"
	"github.com/quickstrom/quickstrom-go/internal/wire"
)

// jsonResult is the serialized shape of one trace.Result: either
// {"valid":{...},"transitions":[...]} (matching json_reporter_test.py's
// expected per-test shape) or {"error":"...","tests":N}.
type jsonResult struct {
	Valid       *wire.Validity   `json:"valid,omitempty"`
	Transitions []jsonTransition `json:"transitions,omitempty"`
	Error       *string          `json:"error,omitempty"`
	Tests       *int             `json:"tests,omitempty"`
}

type jsonTransition struct {
	FromState *wire.State                          `json:"from_state"`
	ToState   wire.State                           `json:"to_state"`
	Actions   []wire.Action                        `json:"actions"`
	Stutter   bool                                 `json:"stutter"`
	Diff      map[wire.Selector][]jsonElementDiff  `json:"diff,omitempty"`
}

// jsonElementDiff is the serialized shape of one diff.Diff[wire.ElementState]:
// a diff kind, the ref it's keyed on, and whichever of Old/New the kind
// makes meaningful (both, for "modified").
type jsonElementDiff struct {
	Kind string            `json:"kind"`
	Ref  wire.ElementRef   `json:"ref"`
	Old  wire.ElementState `json:"old,omitempty"`
	New  wire.ElementState `json:"new,omitempty"`
}

// JSON serializes []trace.Result with encoding/json, optionally writing
// one file per result into a directory in addition to (or instead of) a
// single combined report file.
type JSON struct {
	ReportFile string
	FilesDir   string
}

func NewJSON(reportFile, filesDir string) *JSON {
	return &JSON{ReportFile: reportFile, FilesDir: filesDir}
}

func (j *JSON) Report(results []trace.Result) error {
	payload := make([]jsonResult, len(results))
	for i, r := range results {
		payload[i] = toJSONResult(r)
	}

	if j.ReportFile != "" {
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("reporter: marshal json report: %w", err)
		}
		if err := os.WriteFile(j.ReportFile, data, 0o644); err != nil {
			return fmt.Errorf("reporter: write %s: %w", j.ReportFile, err)
		}
	}

	if j.FilesDir != "" {
		if err := os.MkdirAll(j.FilesDir, 0o755); err != nil {
			return fmt.Errorf("reporter: create %s: %w", j.FilesDir, err)
		}
		for i, one := range payload {
			data, err := json.MarshalIndent(one, "", "  ")
			if err != nil {
				return fmt.Errorf("reporter: marshal result %d: %w", i, err)
			}
			path := filepath.Join(j.FilesDir, fmt.Sprintf("result-%d.json", i))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("reporter: write %s: %w", path, err)
			}
		}
	}
	return nil
}

func toJSONResult(r trace.Result) jsonResult {
	switch r.Kind {
	case trace.KindPassed:
		if len(r.Passed) == 0 {
			return jsonResult{}
		}
		v := r.Passed[0].Validity
		return jsonResult{
			Valid:       &v,
			Transitions: transitionsJSON(r.Passed[0].Transitions),
		}
	case trace.KindFailed:
		if r.Failed == nil {
			return jsonResult{}
		}
		v := r.Failed.Validity
		return jsonResult{
			Valid:       &v,
			Transitions: transitionsJSON(r.Failed.Transitions),
		}
	default:
		tests := r.Tests
		errMsg := r.Error
		return jsonResult{Error: &errMsg, Tests: &tests}
	}
}

func transitionsJSON(transitions []trace.Transition) []jsonTransition {
	out := make([]jsonTransition, len(transitions))
	for i, t := range transitions {
		out[i] = jsonTransition{
			FromState: t.FromState,
			ToState:   t.ToState,
			Actions:   t.Actions,
			Stutter:   t.Stutter,
			Diff:      diffJSON(t.Diff),
		}
	}
	return out
}

func diffJSON(d diff.DiffedState) map[wire.Selector][]jsonElementDiff {
	if len(d) == 0 {
		return nil
	}
	out := make(map[wire.Selector][]jsonElementDiff, len(d))
	for sel, diffs := range d {
		elems := make([]jsonElementDiff, len(diffs))
		for i, one := range diffs {
			elems[i] = jsonElementDiff{
				Kind: one.Kind.String(),
				Ref:  diff.ElementRef(one),
				Old:  diffOld(one),
				New:  diffNew(one),
			}
		}
		out[sel] = elems
	}
	return out
}

func diffOld(d diff.Diff[wire.ElementState]) wire.ElementState {
	if d.Kind == diff.KindAdded {
		return nil
	}
	return d.Old
}

func diffNew(d diff.Diff[wire.ElementState]) wire.ElementState {
	if d.Kind == diff.KindRemoved {
		return nil
	}
	return d.New
}
