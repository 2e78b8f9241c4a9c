package bidi

import (
	"encoding/json"
	"fmt"

	errs "github.com/quickstrom/quickstrom-go/internal/errors"
)

// remoteValue mirrors the shape of a BiDi script.callFunction / script.evaluate
// result's "result" field for the primitive and string types this driver
// actually produces (numbers and JSON-stringified objects).
type remoteValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// callResult mirrors the top-level script.callFunction response.
type callResult struct {
	Type   string          `json:"type"`
	Result remoteValue     `json:"result"`
	Reason json.RawMessage `json:"exceptionDetails,omitempty"`
}

// callFunction invokes functionDeclaration in the given context with the
// given arguments, returning the decoded remote value. Arguments are BiDi
// "local values" or remote references (e.g. {"sharedId": ...}).
func (c *Client) callFunction(context, functionDeclaration string, args []map[string]interface{}) (remoteValue, error) {
	params := map[string]interface{}{
		"functionDeclaration": functionDeclaration,
		"target":              map[string]interface{}{"context": context},
		"arguments":           args,
		"awaitPromise":        false,
		"resultOwnership":     "root",
	}

	msg, err := c.SendCommand("script.callFunction", params)
	if err != nil {
		return remoteValue{}, err
	}

	var res callResult
	if err := json.Unmarshal(msg.Result, &res); err != nil {
		return remoteValue{}, fmt.Errorf("failed to parse script.callFunction result: %w", err)
	}
	if res.Type == "exception" {
		return remoteValue{}, fmt.Errorf("script exception: %s", string(res.Reason))
	}
	return res.Result, nil
}

// Evaluate runs expression as the body of a zero-argument function in
// context and returns the decoded JSON value (a JSON-stringified value on
// the page side, so arbitrary JS expressions can be evaluated without
// fighting BiDi's remote-value serialization).
func (c *Client) Evaluate(context, expression string) (interface{}, error) {
	fn := fmt.Sprintf(`() => JSON.stringify((() => { return (%s); })())`, expression)
	rv, err := c.callFunction(context, fn, nil)
	if err != nil {
		return nil, err
	}
	if rv.Type == "undefined" || rv.Type == "null" || len(rv.Value) == 0 {
		return nil, nil
	}

	var jsonText string
	if err := json.Unmarshal(rv.Value, &jsonText); err != nil {
		return nil, fmt.Errorf("failed to decode evaluate result: %w", err)
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(jsonText), &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode evaluate JSON: %w", err)
	}
	return decoded, nil
}

// refArg builds a BiDi remote-reference argument for an element previously
// handed out with resultOwnership "root" — ref is the BiDi sharedId, which
// the driver uses directly as its stable ElementRef (spec GLOSSARY:
// ElementRef), avoiding a second, redundant handle-tracking layer.
func refArg(ref string) map[string]interface{} {
	return map[string]interface{}{"sharedId": ref}
}

// ElementCenter resolves the bounding box center, in viewport coordinates,
// of the element referenced by ref.
func (c *Client) ElementCenter(context, ref string) (x, y float64, err error) {
	script := `(el) => {
		if (!el) return null;
		const rect = el.getBoundingClientRect();
		return JSON.stringify({x: rect.x + rect.width / 2, y: rect.y + rect.height / 2});
	}`

	rv, err := c.callFunction(context, script, []map[string]interface{}{refArg(ref)})
	if err != nil {
		return 0, 0, &errs.ElementNotFoundError{Selector: ref, Context: context}
	}
	if rv.Type == "null" {
		return 0, 0, &errs.ElementNotFoundError{Selector: ref, Context: context}
	}

	var jsonText string
	if err := json.Unmarshal(rv.Value, &jsonText); err != nil {
		return 0, 0, fmt.Errorf("failed to decode element center: %w", err)
	}

	var center struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.Unmarshal([]byte(jsonText), &center); err != nil {
		return 0, 0, fmt.Errorf("failed to parse element center: %w", err)
	}
	return center.X, center.Y, nil
}

// FocusRef sets focus on the element referenced by ref.
func (c *Client) FocusRef(context, ref string) error {
	script := `(el) => {
		if (!el) return null;
		el.focus();
		return JSON.stringify(true);
	}`

	rv, err := c.callFunction(context, script, []map[string]interface{}{refArg(ref)})
	if err != nil {
		return &errs.ElementNotFoundError{Selector: ref, Context: context}
	}
	if rv.Type == "null" {
		return &errs.ElementNotFoundError{Selector: ref, Context: context}
	}
	return nil
}
