package bidi

import "fmt"

// PerformActions executes a sequence of input actions in context. Callers
// always supply a resolved context; unlike the teacher's surface this
// driver never guesses a default browsing context (internal/browsercontrol
// resolves the one context a session drives when it opens and keeps it for
// the session's lifetime).
func (c *Client) PerformActions(context string, actions []map[string]interface{}) error {
	params := map[string]interface{}{
		"context": context,
		"actions": actions,
	}
	_, err := c.SendCommand("input.performActions", params)
	return err
}

func pointerClickActions(x, y float64, clicks int) []map[string]interface{} {
	steps := []map[string]interface{}{
		{"type": "pointerMove", "x": int(x), "y": int(y), "duration": 0},
	}
	for i := 0; i < clicks; i++ {
		steps = append(steps,
			map[string]interface{}{"type": "pointerDown", "button": 0},
			map[string]interface{}{"type": "pointerUp", "button": 0},
		)
	}

	return []map[string]interface{}{
		{
			"type":       "pointer",
			"id":         "mouse",
			"parameters": map[string]interface{}{"pointerType": "mouse"},
			"actions":    steps,
		},
	}
}

// Click performs a single mouse click at the given viewport coordinates.
func (c *Client) Click(context string, x, y float64) error {
	return c.PerformActions(context, pointerClickActions(x, y, 1))
}

// ClickRef resolves ref's center and clicks it.
func (c *Client) ClickRef(context, ref string) error {
	x, y, err := c.ElementCenter(context, ref)
	if err != nil {
		return err
	}
	return c.Click(context, x, y)
}

// DoubleClick performs a double-click at the given viewport coordinates.
func (c *Client) DoubleClick(context string, x, y float64) error {
	return c.PerformActions(context, pointerClickActions(x, y, 2))
}

// DoubleClickRef resolves ref's center and double-clicks it.
func (c *Client) DoubleClickRef(context, ref string) error {
	x, y, err := c.ElementCenter(context, ref)
	if err != nil {
		return err
	}
	return c.DoubleClick(context, x, y)
}

// keyMap translates the action-level named keys (spec GLOSSARY: keyPress
// argument) into the WebDriver/BiDi private-use-area code points a real
// keyboard would send.
var keyMap = map[string]string{
	"Enter":     "",
	"Tab":       "",
	"Escape":    "",
	"Backspace": "",
	"Delete":    "",
	"ArrowUp":   "",
	"ArrowDown": "",
	"ArrowLeft": "",
	"ArrowRight": "",
	"Shift":     "",
	"Control":   "",
	"Alt":       "",
	"Meta":      "",
	"Space":     "",
	"Home":      "",
	"End":       "",
	"PageUp":    "",
	"PageDown":  "",
}

// ResolveKey maps a named key to its BiDi key value, passing single
// characters through unchanged.
func ResolveKey(name string) (string, error) {
	if v, ok := keyMap[name]; ok {
		return v, nil
	}
	if len([]rune(name)) == 1 {
		return name, nil
	}
	return "", fmt.Errorf("bidi: unknown key %q", name)
}

// KeyPress sends a keyDown/keyUp pair for a single (possibly named) key.
func (c *Client) KeyPress(context, key string) error {
	resolved, err := ResolveKey(key)
	if err != nil {
		return err
	}
	actions := []map[string]interface{}{
		{
			"type": "key",
			"id":   "keyboard",
			"actions": []map[string]interface{}{
				{"type": "keyDown", "value": resolved},
				{"type": "keyUp", "value": resolved},
			},
		},
	}
	return c.PerformActions(context, actions)
}

// PressKeyCombo sends a chord: every key in keys is pressed down in order,
// then released in reverse order (so e.g. ["Control", "a"] behaves as a
// held-modifier shortcut rather than two independent taps).
func (c *Client) PressKeyCombo(context string, keys []string) error {
	resolved := make([]string, len(keys))
	for i, k := range keys {
		r, err := ResolveKey(k)
		if err != nil {
			return err
		}
		resolved[i] = r
	}

	steps := make([]map[string]interface{}, 0, len(resolved)*2)
	for _, k := range resolved {
		steps = append(steps, map[string]interface{}{"type": "keyDown", "value": k})
	}
	for i := len(resolved) - 1; i >= 0; i-- {
		steps = append(steps, map[string]interface{}{"type": "keyUp", "value": resolved[i]})
	}

	actions := []map[string]interface{}{
		{"type": "key", "id": "keyboard", "actions": steps},
	}
	return c.PerformActions(context, actions)
}
