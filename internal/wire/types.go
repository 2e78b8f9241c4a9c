// Package wire implements the WireCodec: framing and parsing of the
// tagged, line-delimited JSON messages exchanged with the interpreter
// subprocess over its stdin/stdout, per spec §4.1 and §6.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/quickstrom/quickstrom-go/internal/jsonvalue"
)

// Selector is an opaque textual key into a State map.
type Selector = string

// ElementRef is an opaque identifier stable within one browser session.
type ElementRef = string

// ElementState maps attribute name to a JSON-like value. Every well-formed
// ElementState carries a "ref" key (I4).
type ElementState map[string]jsonvalue.Value

// Ref returns the element's ref field, or "" if absent/non-string.
func (e ElementState) Ref() ElementRef {
	v, ok := e["ref"]
	if !ok || v.Kind != jsonvalue.KindString {
		return ""
	}
	return v.String
}

// State maps Selector to an ordered sequence of ElementStates.
type State map[Selector][]ElementState

// Schema declares which attributes to read per element; transported
// opaquely between interpreter and browser, never interpreted by the
// engine itself (per spec Design Notes).
type Schema = jsonvalue.Value

// Dependencies is the {Selector -> Schema} map sent with Start.
type Dependencies map[Selector]Schema

// Action is a primitive user action or protocol event.
type Action struct {
	ID      string            `json:"id"`
	Args    []jsonvalue.Value `json:"args"`
	IsEvent bool              `json:"isEvent"`
	Timeout *int              `json:"timeout,omitempty"`
}

// The two special event identifiers, distinct from the four primitive
// user actions (click, doubleClick, focus, keyPress).
const (
	ActionLoaded  = "loaded"
	ActionChanged = "changed"
)

// Certainty is the interpreter's confidence in a Validity verdict.
type Certainty string

const (
	CertaintyDefinitely Certainty = "Definitely"
	CertaintyProbably   Certainty = "Probably"
)

// Validity is the interpreter's verdict on a trace.
type Validity struct {
	Certainty Certainty `json:"certainty"`
	Value     bool      `json:"value"`
}

// TraceElement is one element of the alternating actions/state sequence
// that makes up a Result's trace.
type TraceElement struct {
	Tag      string          `json:"tag"`
	Contents json.RawMessage `json:"contents"`
}

// TraceActionsContents decodes a "TraceAction"-tagged element's contents.
func (t TraceElement) TraceActionsContents() ([]Action, error) {
	var actions []Action
	if err := json.Unmarshal(t.Contents, &actions); err != nil {
		return nil, fmt.Errorf("wire: decode TraceAction contents: %w", err)
	}
	return actions, nil
}

// TraceStateContents decodes a "TraceState"-tagged element's contents.
func (t TraceElement) TraceStateContents() (State, error) {
	var s State
	if err := json.Unmarshal(t.Contents, &s); err != nil {
		return nil, fmt.Errorf("wire: decode TraceState contents: %w", err)
	}
	return s, nil
}

const (
	TraceElementAction = "TraceAction"
	TraceElementState  = "TraceState"
)

// RunResult is one element of Done's results array: either a verdict over
// a trace, or an error string.
type RunResult struct {
	Valid *Validity      `json:"valid,omitempty"`
	Trace []TraceElement `json:"trace,omitempty"`
	Error *string        `json:"error,omitempty"`
}

// IsError reports whether this RunResult is the error variant.
func (r RunResult) IsError() bool { return r.Error != nil }
