package trace

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickstrom/quickstrom-go/internal/jsonvalue"
	"github.com/quickstrom/quickstrom-go/internal/wire"
)

func rawActions(t *testing.T, actions []wire.Action) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(actions)
	require.NoError(t, err)
	return b
}

func rawState(t *testing.T, s wire.State) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(s)
	require.NoError(t, err)
	return b
}

func TestBuildTransitions_FirstTransitionHasNoFromState(t *testing.T) {
	loaded := wire.State{}
	elements := []wire.TraceElement{
		{Tag: wire.TraceElementAction, Contents: rawActions(t, nil)},
		{Tag: wire.TraceElementState, Contents: rawState(t, loaded)},
	}

	transitions, err := BuildTransitions(elements)
	require.NoError(t, err)
	require.Len(t, transitions, 1)
	assert.Nil(t, transitions[0].FromState)
}

func TestBuildTransitions_OddLengthIsMalformed(t *testing.T) {
	elements := []wire.TraceElement{
		{Tag: wire.TraceElementAction, Contents: rawActions(t, nil)},
	}
	_, err := BuildTransitions(elements)
	require.Error(t, err)
}

func TestBuildTransitions_ChainsFromStates(t *testing.T) {
	s0 := wire.State{}
	s1 := wire.State{"button": {{"ref": jsonvalue.String("E1")}}}

	elements := []wire.TraceElement{
		{Tag: wire.TraceElementAction, Contents: rawActions(t, nil)},
		{Tag: wire.TraceElementState, Contents: rawState(t, s0)},
		{Tag: wire.TraceElementAction, Contents: rawActions(t, []wire.Action{{ID: "click"}})},
		{Tag: wire.TraceElementState, Contents: rawState(t, s1)},
	}

	transitions, err := BuildTransitions(elements)
	require.NoError(t, err)
	require.Len(t, transitions, 2)
	assert.Nil(t, transitions[0].FromState)
	require.NotNil(t, transitions[1].FromState)
	assert.Equal(t, s0, *transitions[1].FromState)
}

func TestFromProtocolResult_ClassifiesByValidity(t *testing.T) {
	loaded := wire.State{}
	elements := []wire.TraceElement{
		{Tag: wire.TraceElementAction, Contents: rawActions(t, nil)},
		{Tag: wire.TraceElementState, Contents: rawState(t, loaded)},
	}

	passing := wire.RunResult{Valid: &wire.Validity{Certainty: wire.CertaintyDefinitely, Value: true}, Trace: elements}
	res, err := FromProtocolResult(passing)
	require.NoError(t, err)
	assert.Equal(t, KindPassed, res.Kind)
	require.Len(t, res.Passed, 1)

	failing := wire.RunResult{Valid: &wire.Validity{Certainty: wire.CertaintyDefinitely, Value: false}, Trace: elements}
	res, err = FromProtocolResult(failing)
	require.NoError(t, err)
	assert.Equal(t, KindFailed, res.Kind)
	require.NotNil(t, res.Failed)
}

func TestFromDone_HandlesErrorVariant(t *testing.T) {
	errMsg := "boom"
	results := []wire.RunResult{
		{Error: &errMsg},
	}
	out, err := FromDone(results)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, KindErrored, out[0].Kind)
	assert.Equal(t, "boom", out[0].Error)
}
