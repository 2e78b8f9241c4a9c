package bidi

import (
	"encoding/json"
	"fmt"
)

// BrowsingContextInfo represents a browsing context in the tree.
type BrowsingContextInfo struct {
	Context  string                `json:"context"`
	URL      string                `json:"url"`
	Children []BrowsingContextInfo `json:"children,omitempty"`
	Parent   string                `json:"parent,omitempty"`
}

// GetTreeResult represents the result of browsingContext.getTree.
type GetTreeResult struct {
	Contexts []BrowsingContextInfo `json:"contexts"`
}

// GetTree returns the tree of browsing contexts.
func (c *Client) GetTree() (*GetTreeResult, error) {
	msg, err := c.SendCommand("browsingContext.getTree", map[string]interface{}{})
	if err != nil {
		return nil, err
	}

	var result GetTreeResult
	if err := json.Unmarshal(msg.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to parse browsingContext.getTree result: %w", err)
	}

	return &result, nil
}

// FirstContext returns the first available browsing context — the one the
// engine treats as "the page" for the whole session (the spec assumes a
// single browsing context per session).
func (c *Client) FirstContext() (string, error) {
	tree, err := c.GetTree()
	if err != nil {
		return "", fmt.Errorf("failed to get browsing context: %w", err)
	}
	if len(tree.Contexts) == 0 {
		return "", fmt.Errorf("no browsing contexts available")
	}
	return tree.Contexts[0].Context, nil
}

// NavigateResult represents the result of browsingContext.navigate.
type NavigateResult struct {
	Navigation string `json:"navigation"`
	URL        string `json:"url"`
}

// Navigate navigates a browsing context to a URL, waiting for the load to
// complete.
func (c *Client) Navigate(context, url string) (*NavigateResult, error) {
	params := map[string]interface{}{
		"context": context,
		"url":     url,
		"wait":    "complete",
	}

	msg, err := c.SendCommand("browsingContext.navigate", params)
	if err != nil {
		return nil, err
	}

	var result NavigateResult
	if err := json.Unmarshal(msg.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to parse browsingContext.navigate result: %w", err)
	}

	return &result, nil
}

// SetViewport sets the viewport size, in CSS pixels.
func (c *Client) SetViewport(context string, width, height int) error {
	params := map[string]interface{}{
		"context": context,
		"viewport": map[string]interface{}{
			"width":  width,
			"height": height,
		},
	}
	_, err := c.SendCommand("browsingContext.setViewport", params)
	return err
}

// CaptureScreenshotResult represents the result of browsingContext.captureScreenshot.
type CaptureScreenshotResult struct {
	Data string `json:"data"` // Base64-encoded PNG
}

// CaptureScreenshot captures a screenshot of the viewport, returning
// base64-encoded PNG data.
func (c *Client) CaptureScreenshot(context string) (string, error) {
	params := map[string]interface{}{
		"context": context,
	}

	msg, err := c.SendCommand("browsingContext.captureScreenshot", params)
	if err != nil {
		return "", err
	}

	var result CaptureScreenshotResult
	if err := json.Unmarshal(msg.Result, &result); err != nil {
		return "", fmt.Errorf("failed to parse browsingContext.captureScreenshot result: %w", err)
	}

	return result.Data, nil
}

// CloseContext closes a browsing context (tab), used during session teardown.
func (c *Client) CloseContext(context string) error {
	params := map[string]interface{}{
		"context": context,
	}
	_, err := c.SendCommand("browsingContext.close", params)
	return err
}
