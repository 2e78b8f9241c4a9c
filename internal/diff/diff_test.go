package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickstrom/quickstrom-go/internal/jsonvalue"
	"github.com/quickstrom/quickstrom-go/internal/wire"
)

func el(ref, text string) wire.ElementState {
	return wire.ElementState{"ref": jsonvalue.String(ref), "text": jsonvalue.String(text)}
}

func TestCompute_RemovedUnmodifiedAdded(t *testing.T) {
	old := wire.State{".item": {el("A", "x"), el("B", "y")}}
	next := wire.State{".item": {el("B", "y"), el("C", "z")}}

	result := Compute(old, next)
	got := result[".item"]

	require.Len(t, got, 3)
	assert.Equal(t, KindRemoved, got[0].Kind)
	assert.Equal(t, "A", got[0].Old.Ref())
	assert.Equal(t, KindUnmodified, got[1].Kind)
	assert.Equal(t, "B", got[1].Old.Ref())
	assert.Equal(t, KindAdded, got[2].Kind)
	assert.Equal(t, "C", got[2].New.Ref())

	assert.False(t, IsStutter(old, next))
}

func TestCompute_ModifiedWhenContentDiffers(t *testing.T) {
	old := wire.State{".item": {el("A", "x")}}
	next := wire.State{".item": {el("A", "y")}}

	got := Compute(old, next)[".item"]
	require.Len(t, got, 1)
	assert.Equal(t, KindModified, got[0].Kind)
	assert.Equal(t, "x", got[0].Old["text"].String)
	assert.Equal(t, "y", got[0].New["text"].String)
}

func TestCompute_PositionIncludedInEquality(t *testing.T) {
	a := wire.ElementState{"ref": jsonvalue.String("A"), "position": jsonvalue.Number(1)}
	b := wire.ElementState{"ref": jsonvalue.String("A"), "position": jsonvalue.Number(2)}

	old := wire.State{".item": {a}}
	next := wire.State{".item": {b}}

	got := Compute(old, next)[".item"]
	require.Len(t, got, 1)
	assert.Equal(t, KindModified, got[0].Kind, "position changes must surface as Modified")
}

func TestIsStutter_NilPrevNeverStutters(t *testing.T) {
	assert.False(t, IsStutter(nil, wire.State{}))
}

func TestIsStutter_EqualContentStutters(t *testing.T) {
	s1 := wire.State{".item": {el("A", "x")}}
	s2 := wire.State{".item": {el("A", "x")}}
	assert.True(t, IsStutter(s1, s2))
}

// Diff round-trip property: applying Added/Removed/Modified entries of
// diff(a,b) to a yields b, up to element ordering within a selector.
func TestCompute_RoundTripsToNewState(t *testing.T) {
	old := wire.State{".item": {el("A", "x"), el("B", "y"), el("C", "z")}}
	next := wire.State{".item": {el("B", "y2"), el("D", "w")}}

	entries := Compute(old, next)[".item"]

	rebuilt := make(map[wire.ElementRef]wire.ElementState)
	for _, e := range entries {
		switch e.Kind {
		case KindAdded:
			rebuilt[e.New.Ref()] = e.New
		case KindModified:
			rebuilt[e.New.Ref()] = e.New
		case KindUnmodified:
			rebuilt[e.New.Ref()] = e.New
		case KindRemoved:
			// absent from the rebuilt state
		}
	}

	wantByRef := make(map[wire.ElementRef]wire.ElementState)
	for _, e := range next[".item"] {
		wantByRef[e.Ref()] = e
	}

	require.Equal(t, len(wantByRef), len(rebuilt))
	for ref, want := range wantByRef {
		got, ok := rebuilt[ref]
		require.True(t, ok, "missing ref %s", ref)
		assert.Equal(t, want["text"].String, got["text"].String)
	}
}

func TestWithoutPosition_StripsOnlyPosition(t *testing.T) {
	e := wire.ElementState{"ref": jsonvalue.String("A"), "position": jsonvalue.Number(1), "text": jsonvalue.String("x")}
	out := WithoutPosition(e)
	_, hasPos := out["position"]
	assert.False(t, hasPos)
	assert.Equal(t, "x", out["text"].String)
}
