// Package trace implements the TraceModel: converting a raw interpreter
// trace into Transitions, and classifying a RunResult into the Test/Result
// sum types downstream reporters consume (spec §4.5).
package trace

import (
	"fmt"

	"github.com/quickstrom/quickstrom-go/internal/diff"
	"github.com/quickstrom/quickstrom-go/internal/wire"
)

// Transition is one step of a trace: the state observed before (absent
// only for the first transition) and after a group of actions.
type Transition struct {
	FromState *wire.State
	ToState   wire.State
	Actions   []wire.Action
	Stutter   bool
	Diff      diff.DiffedState
}

// Test is one interpreter verdict over one trace.
type Test struct {
	Validity    wire.Validity
	Transitions []Transition
}

// ResultKind discriminates a Result's variant.
type ResultKind int

const (
	KindPassed ResultKind = iota
	KindFailed
	KindErrored
)

// Result is the sum type Passed{passed} | Failed{passed, failed} | Errored{error, tests}.
type Result struct {
	Kind   ResultKind
	Passed []Test
	Failed *Test
	Error  string
	Tests  int
}

func NewPassed(t Test) Result {
	return Result{Kind: KindPassed, Passed: []Test{t}}
}

func NewFailed(t Test) Result {
	return Result{Kind: KindFailed, Passed: nil, Failed: &t}
}

func NewErrored(err error, testsCompleted int) Result {
	return Result{Kind: KindErrored, Error: err.Error(), Tests: testsCompleted}
}

// BuildTransitions pairs each TraceAction element with the following
// TraceState element. The trace must strictly alternate action group,
// state, action group, state, ... starting with an action group (the
// spec's Trace invariant); violating this is a malformed trace.
func BuildTransitions(elements []wire.TraceElement) ([]Transition, error) {
	if len(elements)%2 != 0 {
		return nil, fmt.Errorf("trace: odd length %d, trace must alternate actions/state", len(elements))
	}

	transitions := make([]Transition, 0, len(elements)/2)
	var prev *wire.State

	for i := 0; i < len(elements); i += 2 {
		actionsElem := elements[i]
		stateElem := elements[i+1]

		if actionsElem.Tag != wire.TraceElementAction {
			return nil, fmt.Errorf("trace: expected %s at index %d, got %s", wire.TraceElementAction, i, actionsElem.Tag)
		}
		if stateElem.Tag != wire.TraceElementState {
			return nil, fmt.Errorf("trace: expected %s at index %d, got %s", wire.TraceElementState, i+1, stateElem.Tag)
		}

		actions, err := actionsElem.TraceActionsContents()
		if err != nil {
			return nil, err
		}
		state, err := stateElem.TraceStateContents()
		if err != nil {
			return nil, err
		}

		stutter := diff.IsStutter(derefOrNil(prev), state)
		transitions = append(transitions, Transition{
			FromState: prev,
			ToState:   state,
			Actions:   actions,
			Stutter:   stutter,
			Diff:      diff.Compute(derefOrNil(prev), state),
		})

		stateCopy := state
		prev = &stateCopy
	}

	return transitions, nil
}

func derefOrNil(s *wire.State) wire.State {
	if s == nil {
		return nil
	}
	return *s
}

// FromProtocolResult classifies a RunResult whose Valid field is set: true
// becomes Passed([test]), false becomes Failed([], test). RunResults
// carrying the error variant instead should be handled by the caller via
// NewErrored — this function only handles the valid/trace shape.
func FromProtocolResult(r wire.RunResult) (Result, error) {
	if r.IsError() {
		return Result{}, fmt.Errorf("trace: RunResult is the error variant, use NewErrored")
	}
	if r.Valid == nil {
		return Result{}, fmt.Errorf("trace: RunResult missing validity")
	}

	transitions, err := BuildTransitions(r.Trace)
	if err != nil {
		return Result{}, err
	}

	test := Test{Validity: *r.Valid, Transitions: transitions}
	if r.Valid.Value {
		return NewPassed(test), nil
	}
	return NewFailed(test), nil
}

// FromDone classifies every RunResult in a Done payload, converting error-
// variant results with NewErrored at the position they occur (tests
// completed so far is the count of valid results preceding the error).
func FromDone(results []wire.RunResult) ([]Result, error) {
	out := make([]Result, 0, len(results))
	completed := 0
	for _, r := range results {
		if r.IsError() {
			out = append(out, NewErrored(fmt.Errorf("%s", *r.Error), completed))
			continue
		}
		res, err := FromProtocolResult(r)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
		completed++
	}
	return out, nil
}
