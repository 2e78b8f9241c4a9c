// Package diff implements the Differ: a structural per-element diff
// between two successive observed states (spec §4.6), plus the stutter
// check over state hashes (spec §4.7, I5).
package diff

import (
	"github.com/quickstrom/quickstrom-go/internal/hash"
	"github.com/quickstrom/quickstrom-go/internal/jsonvalue"
	"github.com/quickstrom/quickstrom-go/internal/wire"
)

// Kind discriminates a Diff[T]'s variant.
type Kind int

const (
	KindUnmodified Kind = iota
	KindAdded
	KindRemoved
	KindModified
)

func (k Kind) String() string {
	switch k {
	case KindAdded:
		return "added"
	case KindRemoved:
		return "removed"
	case KindModified:
		return "modified"
	default:
		return "unmodified"
	}
}

// Diff is the sum type Added(T) | Removed(T) | Modified(old, new T) | Unmodified(T).
// Old is meaningful for Removed, New for Added, and both for Modified;
// Unmodified carries the same value in Old and New. Selected by Kind.
type Diff[T any] struct {
	Kind Kind
	Old  T
	New  T
}

func Added[T any](v T) Diff[T]               { return Diff[T]{Kind: KindAdded, New: v} }
func Removed[T any](v T) Diff[T]             { return Diff[T]{Kind: KindRemoved, Old: v} }
func Modified[T any](old, new T) Diff[T]     { return Diff[T]{Kind: KindModified, Old: old, New: new} }
func Unmodified[T any](v T) Diff[T]          { return Diff[T]{Kind: KindUnmodified, Old: v, New: v} }

// DiffedState replaces each ElementState with a Diff[ElementState].
type DiffedState map[wire.Selector][]Diff[wire.ElementState]

// Compute computes the structural diff between two successive states.
// Elements within a selector are matched by ref (I4 guarantees every
// element has one). Order of the result sequence is removed-first, then
// the remaining elements in new's observed order (spec §4.6) — a fixed
// presentation convention so diffs are deterministic.
func Compute(prev, next wire.State) DiffedState {
	selectors := make(map[wire.Selector]struct{})
	for sel := range prev {
		selectors[sel] = struct{}{}
	}
	for sel := range next {
		selectors[sel] = struct{}{}
	}

	out := make(DiffedState, len(selectors))
	for sel := range selectors {
		out[sel] = diffSelector(prev[sel], next[sel])
	}
	return out
}

func diffSelector(oldElems, newElems []wire.ElementState) []Diff[wire.ElementState] {
	oldByRef := make(map[wire.ElementRef]wire.ElementState, len(oldElems))
	for _, e := range oldElems {
		oldByRef[e.Ref()] = e
	}
	newByRef := make(map[wire.ElementRef]wire.ElementState, len(newElems))
	for _, e := range newElems {
		newByRef[e.Ref()] = e
	}

	result := make([]Diff[wire.ElementState], 0, len(oldElems)+len(newElems))

	// Removed first, in old order.
	for _, e := range oldElems {
		if _, ok := newByRef[e.Ref()]; !ok {
			result = append(result, Removed(e))
		}
	}

	// Then the remaining elements in new's observed order.
	for _, e := range newElems {
		old, existed := oldByRef[e.Ref()]
		switch {
		case !existed:
			result = append(result, Added(e))
		case elementsEqual(old, e):
			result = append(result, Unmodified(e))
		default:
			result = append(result, Modified(old, e))
		}
	}

	return result
}

// elementsEqual compares ElementState content deeply, including the
// "position" field (Open Question resolved in spec §9: included in
// equality, excluded only from presentation).
func elementsEqual(a, b wire.ElementState) bool {
	return jsonvalue.Equal(jsonvalue.Map(map[string]jsonvalue.Value(a)), jsonvalue.Map(map[string]jsonvalue.Value(b)))
}

// ElementRef returns the ref an element Diff is keyed on, taking it from
// whichever side (Old or Removed/Modified/Unmodified, New for Added) is
// populated.
func ElementRef(d Diff[wire.ElementState]) wire.ElementRef {
	if d.Kind == KindAdded {
		return d.New.Ref()
	}
	return d.Old.Ref()
}

// IsStutter reports whether a transition from prev to next is a stutter:
// prev and next hash-equal (I5). Absent prev (the first transition) is
// never a stutter.
func IsStutter(prev, next wire.State) bool {
	if prev == nil {
		return false
	}
	return hash.State(prev) == hash.State(next)
}

// WithoutPosition strips the presentation-only "position" key from an
// ElementState for display purposes. Equality and hashing always include
// it; only rendering excludes it.
func WithoutPosition(e wire.ElementState) wire.ElementState {
	if _, ok := e["position"]; !ok {
		return e
	}
	out := make(wire.ElementState, len(e)-1)
	for k, v := range e {
		if k == "position" {
			continue
		}
		out[k] = v
	}
	return out
}
