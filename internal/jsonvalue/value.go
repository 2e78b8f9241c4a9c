// Package jsonvalue implements a tagged sum type over JSON-like data, used
// wherever the engine needs to inspect, diff, or hash values observed from
// the browser without losing the distinction between e.g. a map and a list.
package jsonvalue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Kind discriminates the shape a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a JSON-like value: exactly one field is meaningful, selected by Kind.
type Value struct {
	Kind   Kind
	Bool   bool
	Number float64
	String string
	List   []Value
	Map    map[string]Value
}

func Null() Value              { return Value{Kind: KindNull} }
func Bool(b bool) Value        { return Value{Kind: KindBool, Bool: b} }
func Number(n float64) Value   { return Value{Kind: KindNumber, Number: n} }
func String(s string) Value    { return Value{Kind: KindString, String: s} }
func List(vs []Value) Value    { return Value{Kind: KindList, List: vs} }
func Map(m map[string]Value) Value { return Value{Kind: KindMap, Map: m} }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// MarshalJSON renders the Value as its underlying JSON shape.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.Bool)
	case KindNumber:
		return json.Marshal(v.Number)
	case KindString:
		return json.Marshal(v.String)
	case KindList:
		return json.Marshal(v.List)
	case KindMap:
		return json.Marshal(v.Map)
	default:
		return nil, fmt.Errorf("jsonvalue: unknown kind %v", v.Kind)
	}
}

// UnmarshalJSON decodes arbitrary JSON into the tagged representation.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = fromInterface(raw)
	return nil
}

func fromInterface(raw interface{}) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(x)
	case json.Number:
		f, _ := x.Float64()
		return Number(f)
	case float64:
		return Number(x)
	case string:
		return String(x)
	case []interface{}:
		out := make([]Value, len(x))
		for i, e := range x {
			out[i] = fromInterface(e)
		}
		return List(out)
	case map[string]interface{}:
		out := make(map[string]Value, len(x))
		for k, e := range x {
			out[k] = fromInterface(e)
		}
		return Map(out)
	default:
		return Null()
	}
}

// Equal reports deep structural equality between two values. Map key order
// and list element order matter for List (element order is observation
// order) but not for Map (key order is not part of a map's identity).
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindNumber:
		return a.Number == b.Number
	case KindString:
		return a.String == b.String
	case KindList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !Equal(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.Map) != len(b.Map) {
			return false
		}
		for k, av := range a.Map {
			bv, ok := b.Map[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// SortedKeys returns a Map's keys in sorted order. Returns nil for non-Map values.
func (v Value) SortedKeys() []string {
	if v.Kind != KindMap {
		return nil
	}
	keys := make([]string, 0, len(v.Map))
	for k := range v.Map {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
