package bidi

import (
	"encoding/json"
	"fmt"
)

// bidiValue is the generic shape of one BiDi RemoteValue: a discriminated
// union on Type, decoded lazily via Value/SharedID depending on which.
type bidiValue struct {
	Type     string          `json:"type"`
	Value    json.RawMessage `json:"value,omitempty"`
	SharedID string          `json:"sharedId,omitempty"`
}

// CallScript invokes scriptBody — an opaque `(arg) => result` expression,
// exactly as loaded from the client scripts directory — with argJSON
// parsed and passed as its single argument. The result is normalized: any
// BiDi "node" remote value (a live DOM element handle) anywhere in the
// return value's object/array tree is replaced by its sharedId string, so
// a script building `{ref: el, ...}` produces an ElementState whose "ref"
// key is the stable string the wire protocol requires (I4).
func (c *Client) CallScript(context, scriptBody, argJSON string) (json.RawMessage, error) {
	fn := fmt.Sprintf(`(__argJSON) => {
		const __arg = JSON.parse(__argJSON);
		return (%s)(__arg);
	}`, scriptBody)

	args := []map[string]interface{}{
		{"type": "string", "value": argJSON},
	}

	msg, err := c.SendCommand("script.callFunction", map[string]interface{}{
		"functionDeclaration": fn,
		"target":              map[string]interface{}{"context": context},
		"arguments":           args,
		"awaitPromise":        true,
		"resultOwnership":     "root",
	})
	if err != nil {
		return nil, err
	}

	var res struct {
		Type   string          `json:"type"`
		Result json.RawMessage `json:"result"`
		Reason json.RawMessage `json:"exceptionDetails,omitempty"`
	}
	if err := json.Unmarshal(msg.Result, &res); err != nil {
		return nil, fmt.Errorf("failed to parse script.callFunction result: %w", err)
	}
	if res.Type == "exception" {
		return nil, fmt.Errorf("script exception: %s", string(res.Reason))
	}

	normalized, err := normalizeRemoteValue(res.Result)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

func normalizeRemoteValue(raw json.RawMessage) (interface{}, error) {
	var v bidiValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("bidi: decode remote value: %w", err)
	}

	switch v.Type {
	case "null", "undefined":
		return nil, nil
	case "node":
		return v.SharedID, nil
	case "string":
		var s string
		if err := json.Unmarshal(v.Value, &s); err != nil {
			return nil, err
		}
		return s, nil
	case "number":
		var n json.Number
		if err := json.Unmarshal(v.Value, &n); err != nil {
			return nil, err
		}
		f, err := n.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case "boolean":
		var b bool
		if err := json.Unmarshal(v.Value, &b); err != nil {
			return nil, err
		}
		return b, nil
	case "array":
		var items []json.RawMessage
		if err := json.Unmarshal(v.Value, &items); err != nil {
			return nil, err
		}
		out := make([]interface{}, len(items))
		for i, item := range items {
			norm, err := normalizeRemoteValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = norm
		}
		return out, nil
	case "object":
		var pairs [][2]json.RawMessage
		if err := json.Unmarshal(v.Value, &pairs); err != nil {
			return nil, err
		}
		out := make(map[string]interface{}, len(pairs))
		for _, pair := range pairs {
			key, err := normalizeKey(pair[0])
			if err != nil {
				return nil, err
			}
			val, err := normalizeRemoteValue(pair[1])
			if err != nil {
				return nil, err
			}
			out[key] = val
		}
		return out, nil
	default:
		return nil, nil
	}
}

// normalizeKey decodes an object-entry key, which BiDi encodes either as a
// bare JSON string (the common case for plain objects) or as a nested
// string remote value (Map-like entries).
func normalizeKey(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	norm, err := normalizeRemoteValue(raw)
	if err != nil {
		return "", err
	}
	s, ok := norm.(string)
	if !ok {
		return "", fmt.Errorf("bidi: object key is not a string")
	}
	return s, nil
}
