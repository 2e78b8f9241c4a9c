package wire

import "encoding/json"

// Outbound tags (engine -> interpreter), fixed and disjoint from Inbound.
const (
	TagEvent     = "Event"
	TagEvents    = "Events"
	TagPerformed = "Performed"
	TagTimeout   = "Timeout"
	TagStale     = "Stale"
)

// Outbound is anything that can render itself as one tagged JSON line.
type Outbound interface {
	EncodeOutbound() ([]byte, error)
}

// EventMsg reports a single client-originated event with its resulting
// state (the single-event variant of Events).
type EventMsg struct {
	Event Action
	State State
}

func (m EventMsg) EncodeOutbound() ([]byte, error) {
	return json.Marshal(struct {
		Tag      string  `json:"tag"`
		Contents []any   `json:"contents"`
	}{Tag: TagEvent, Contents: []any{m.Event, m.State}})
}

// EventsMsg reports a batch of client-originated events with the
// resulting state.
type EventsMsg struct {
	Events []Action `json:"events"`
	State  State    `json:"state"`
}

func (m EventsMsg) EncodeOutbound() ([]byte, error) {
	return marshalTagged(TagEvents, m)
}

// PerformedMsg reports that a requested action completed.
type PerformedMsg struct {
	State State `json:"state"`
}

func (m PerformedMsg) EncodeOutbound() ([]byte, error) {
	return marshalTagged(TagPerformed, m)
}

// TimeoutMsg reports that no event was observed within the await timeout.
type TimeoutMsg struct {
	State State `json:"state"`
}

func (m TimeoutMsg) EncodeOutbound() ([]byte, error) {
	return marshalTagged(TagTimeout, m)
}

// StaleMsg tells the interpreter its request referenced a stale version.
type StaleMsg struct{}

func (m StaleMsg) EncodeOutbound() ([]byte, error) {
	return json.Marshal(struct {
		Tag string `json:"tag"`
	}{Tag: TagStale})
}

// marshalTagged merges a "tag" field into the JSON object produced by v's
// own struct tags.
func marshalTagged(tag string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tagJSON, err := json.Marshal(tag)
	if err != nil {
		return nil, err
	}
	fields["tag"] = tagJSON
	return json.Marshal(fields)
}
