package hash

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quickstrom/quickstrom-go/internal/jsonvalue"
	"github.com/quickstrom/quickstrom-go/internal/wire"
)

func elem(ref string, extra map[string]jsonvalue.Value) wire.ElementState {
	es := wire.ElementState{"ref": jsonvalue.String(ref)}
	for k, v := range extra {
		es[k] = v
	}
	return es
}

func TestState_StableUnderKeyReordering(t *testing.T) {
	a := wire.State{
		"button": {elem("E1", map[string]jsonvalue.Value{
			"text": jsonvalue.String("Go"),
			"nested": jsonvalue.Map(map[string]jsonvalue.Value{
				"a": jsonvalue.Number(1),
				"b": jsonvalue.Number(2),
			}),
		})},
	}
	b := wire.State{
		"button": {elem("E1", map[string]jsonvalue.Value{
			"nested": jsonvalue.Map(map[string]jsonvalue.Value{
				"b": jsonvalue.Number(2),
				"a": jsonvalue.Number(1),
			}),
			"text": jsonvalue.String("Go"),
		})},
	}

	require.Equal(t, State(a), State(b))
}

func TestState_DiffersOnContentChange(t *testing.T) {
	a := wire.State{"button": {elem("E1", map[string]jsonvalue.Value{"text": jsonvalue.String("Go")})}}
	b := wire.State{"button": {elem("E1", map[string]jsonvalue.Value{"text": jsonvalue.String("Stop")})}}

	require.NotEqual(t, State(a), State(b))
}

func TestState_OrderWithinSelectorMatters(t *testing.T) {
	a := wire.State{"item": {elem("A", nil), elem("B", nil)}}
	b := wire.State{"item": {elem("B", nil), elem("A", nil)}}

	require.NotEqual(t, State(a), State(b))
}
