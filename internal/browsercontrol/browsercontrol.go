// Package browsercontrol implements the BrowserControl capability (spec
// §4.3): a narrow surface over internal/bidi and internal/browser that the
// core never reaches past. Driver-specific behavior (process discovery,
// key synthesis, element resolution) stays hidden behind the seven
// operations below.
package browsercontrol

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/quickstrom/quickstrom-go/internal/bidi"
	"github.com/quickstrom/quickstrom-go/internal/browser"
	errs "github.com/quickstrom/quickstrom-go/internal/errors"
	"github.com/quickstrom/quickstrom-go/internal/jsonvalue"
	"github.com/quickstrom/quickstrom-go/internal/wire"
)

// Kind selects which browser to drive.
type Kind string

const (
	Chrome  Kind = "chrome"
	Firefox Kind = "firefox"
)

// Cookie is the minimal cookie shape the core passes across the
// BrowserControl boundary.
type Cookie struct {
	Domain string
	Name   string
	Value  string
}

// Session is one open BrowserControl session: a running browser process
// plus the BiDi context the engine drives for its lifetime.
type Session struct {
	launch  *browser.LaunchResult
	client  *bidi.Client
	context string

	viewportWidth  int
	viewportHeight int
}

// Open launches kind headless and returns a Session bound to its first
// browsing context. Fails with *errors.DriverMissing* if the browser
// binary cannot be found.
func Open(kind Kind, headless bool) (*Session, error) {
	launch, err := browser.Launch(browser.LaunchOptions{Browser: string(kind), Headless: headless})
	if err != nil {
		return nil, err
	}

	conn, err := bidi.Connect(launch.WebSocketURL)
	if err != nil {
		launch.Close()
		return nil, err
	}

	client := bidi.NewClient(conn)
	context, err := client.FirstContext()
	if err != nil {
		client.Close()
		launch.Close()
		return nil, &errs.BrowserError{Op: "open", Cause: err}
	}

	return &Session{launch: launch, client: client, context: context}, nil
}

// Internal exposes the underlying BiDi client and context id for
// ClientScripts invocation. SessionEngine is the only caller that needs to
// reach past the seven capability operations, since script evaluation
// is itself part of the BrowserControl surface (spec §4.2/§4.3 boundary).
func (s *Session) Internal() (*bidi.Client, string) {
	return s.client, s.context
}

// Navigate is synchronous and idempotent.
func (s *Session) Navigate(url string) error {
	if _, err := s.client.Navigate(s.context, url); err != nil {
		return &errs.BrowserError{Op: "navigate", Cause: err}
	}
	return nil
}

// SetCookies installs cookies in the current document origin. Per spec
// §4.3 this must be followed by a re-navigation for the cookies to take
// effect against subsequent requests; sequencing that is SessionEngine's
// responsibility, not this capability's.
func (s *Session) SetCookies(cookies []Cookie) error {
	converted := make([]bidi.Cookie, len(cookies))
	for i, c := range cookies {
		converted[i] = bidi.Cookie{Domain: c.Domain, Name: c.Name, Value: c.Value}
	}
	if err := s.client.SetCookies(s.context, converted); err != nil {
		return &errs.BrowserError{Op: "set_cookies", Cause: err}
	}
	return nil
}

// SetViewport sets the viewport in CSS pixels.
func (s *Session) SetViewport(width, height int) error {
	if err := s.client.SetViewport(s.context, width, height); err != nil {
		return &errs.BrowserError{Op: "set_viewport", Cause: err}
	}
	s.viewportWidth, s.viewportHeight = width, height
	return nil
}

// Perform executes one primitive user action. Unknown action IDs fail with
// *errors.UnsupportedAction*; the core never branches on driver details
// (waits, key synthesis) itself.
func (s *Session) Perform(action wire.Action) error {
	ref := firstStringArg(action.Args)

	var err error
	switch action.ID {
	case "click":
		err = s.client.ClickRef(s.context, ref)
	case "doubleClick":
		err = s.client.DoubleClickRef(s.context, ref)
	case "focus":
		err = s.client.FocusRef(s.context, ref)
	case "keyPress":
		err = s.client.KeyPress(s.context, ref)
	default:
		return &errs.UnsupportedAction{ActionID: action.ID}
	}
	if err != nil {
		return &errs.BrowserError{Op: action.ID, Cause: err}
	}
	return nil
}

func firstStringArg(args []jsonvalue.Value) string {
	if len(args) == 0 {
		return ""
	}
	if args[0].Kind != jsonvalue.KindString {
		return ""
	}
	return args[0].String
}

// Screenshot captures the viewport as PNG bytes, plus the scale factor
// (rendered pixels per CSS pixel) computed from the decoded image size
// against the last SetViewport call.
func (s *Session) Screenshot() (data []byte, width, height int, scale float64, err error) {
	b64, err := s.client.CaptureScreenshot(s.context)
	if err != nil {
		return nil, 0, 0, 0, &errs.BrowserError{Op: "screenshot", Cause: err}
	}

	data, err = base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, 0, 0, 0, &errs.BrowserError{Op: "screenshot", Cause: fmt.Errorf("decode base64: %w", err)}
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return data, 0, 0, 1, nil
	}

	sc := 1.0
	if s.viewportWidth > 0 {
		sc = float64(cfg.Width) / float64(s.viewportWidth)
	}
	return data, cfg.Width, cfg.Height, sc, nil
}

// Close tears down the BiDi connection and browser process. Guaranteed to
// run on every exit path by the caller (SessionEngine).
func (s *Session) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	if s.launch != nil {
		s.launch.Close()
	}
	return nil
}
