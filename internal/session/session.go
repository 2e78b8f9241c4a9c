// Package session implements SessionEngine (spec §4.4): the outer/inner
// control loop that runs one interpreter subprocess to completion,
// coupling its requests to a live browser session under a monotonically
// advancing state version.
package session

import (
	"errors"
	"fmt"
	"io"

	"github.com/quickstrom/quickstrom-go/internal/browsercontrol"
	"github.com/quickstrom/quickstrom-go/internal/clientscripts"
	"github.com/quickstrom/quickstrom-go/internal/config"
	errs "github.com/quickstrom/quickstrom-go/internal/errors"
	"github.com/quickstrom/quickstrom-go/internal/hash"
	"github.com/quickstrom/quickstrom-go/internal/interpreter"
	"github.com/quickstrom/quickstrom-go/internal/log"
	"github.com/quickstrom/quickstrom-go/internal/metrics"
	"github.com/quickstrom/quickstrom-go/internal/screenshots"
	"github.com/quickstrom/quickstrom-go/internal/tracing"
	"github.com/quickstrom/quickstrom-go/internal/wire"
)

// Engine runs one interpreter process end-to-end against one browser kind.
type Engine struct {
	cfg     config.CheckConfig
	scripts *clientscripts.Scripts
	store   screenshots.Store
	metrics *metrics.Recorder
	tracer  *tracing.Tracer
}

// New constructs an Engine. store and rec may be nil; store defaults to an
// in-memory screenshot map and rec degrades every call to a no-op.
func New(cfg config.CheckConfig, scripts *clientscripts.Scripts, store screenshots.Store, rec *metrics.Recorder, tracer *tracing.Tracer) *Engine {
	if store == nil {
		store = screenshots.NewMemoryStore()
	}
	if tracer == nil {
		tracer = tracing.NoOp()
	}
	return &Engine{cfg: cfg, scripts: scripts, store: store, metrics: rec, tracer: tracer}
}

// session is one open (Start...End) browser session: the live browser
// control handle plus the version counter I1-I3 protect.
type session struct {
	browser *browsercontrol.Session
	deps    wire.Dependencies
	version int
}

// Execute runs the interpreter subprocess named by cfg to completion,
// driving zero or more browser sessions, and returns the raw
// wire.RunResults from the interpreter's Done message. It never returns a
// partial result set on success; a fatal error aborts the whole run. An
// error while handling Start is always fatal; a BrowserError or
// UnsupportedAction inside a session only ends that session.
func (e *Engine) Execute(proc *interpreter.Process) ([]wire.RunResult, error) {
	endSpan := e.tracer.StartRun()
	defer endSpan()

	var cur *session
	defer func() {
		if cur != nil {
			e.closeSession(cur)
		}
	}()

	for {
		in, err := proc.Codec.ReadInbound()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, &errs.ProtocolError{Detail: "interpreter closed stdout before Done"}
			}
			return nil, &errs.ProtocolError{Detail: "reading inbound message", Cause: err}
		}

		endMsgSpan := e.tracer.StartMessage(in.Tag, sessionVersion(cur))

		switch {
		case in.Tag == wire.TagStart && cur == nil:
			cur, err = e.handleStart(proc, in.Start)
			if err != nil {
				endMsgSpan()
				return nil, err
			}

		case in.Tag == wire.TagDone && cur == nil:
			endMsgSpan()
			return in.Done.Results, nil

		case cur != nil && in.Tag == wire.TagRequestAction:
			err = e.handleRequestAction(proc, cur, in.RequestAction)

		case cur != nil && in.Tag == wire.TagAwaitEvents:
			err = e.handleAwaitEvents(proc, cur, in.AwaitEvents)

		case cur != nil && in.Tag == wire.TagEnd:
			e.closeSession(cur)
			cur = nil

		default:
			err = &errs.ProtocolError{Detail: fmt.Sprintf("unexpected %q in current state", in.Tag)}
		}

		endMsgSpan()

		if err != nil {
			var browserErr *errs.BrowserError
			var unsupported *errs.UnsupportedAction
			if errors.As(err, &browserErr) || errors.As(err, &unsupported) {
				log.L().Sugar().Warnw("session error, ending session", "error", err)
				if cur != nil {
					e.closeSession(cur)
					cur = nil
				}
				continue
			}
			e.metrics.ProtocolError()
			return nil, err
		}
	}
}

func sessionVersion(s *session) int {
	if s == nil {
		return -1
	}
	return s.version
}

// handleStart implements the outer loop's Start transition: open a browser
// session, navigate, apply cookies, set viewport, observe the "loaded"
// phase, and enter the inner loop ready to accept requests.
func (e *Engine) handleStart(proc *interpreter.Process, payload *wire.StartPayload) (*session, error) {
	e.metrics.SessionStarted()

	browserSession, err := browsercontrol.Open(browsercontrol.Kind(e.cfg.Browser), true)
	if err != nil {
		return nil, err
	}

	if err := browserSession.Navigate(e.cfg.Origin); err != nil {
		browserSession.Close()
		return nil, err
	}

	if len(e.cfg.Cookies) > 0 {
		cookies := make([]browsercontrol.Cookie, len(e.cfg.Cookies))
		for i, c := range e.cfg.Cookies {
			cookies[i] = browsercontrol.Cookie{Domain: c.Domain, Name: c.Name, Value: c.Value}
		}
		if err := browserSession.SetCookies(cookies); err != nil {
			browserSession.Close()
			return nil, err
		}
		// Cookies only take effect against subsequent requests.
		if err := browserSession.Navigate(e.cfg.Origin); err != nil {
			browserSession.Close()
			return nil, err
		}
	}

	if err := browserSession.SetViewport(1280, 720); err != nil {
		browserSession.Close()
		return nil, err
	}

	s := &session{browser: browserSession, deps: payload.Dependencies, version: 0}
	e.metrics.SetStateVersion(s.version)

	client, context := browserSession.Internal()
	if err := e.scripts.InstallEventListener(client, context, s.deps); err != nil {
		e.closeSession(s)
		return nil, err
	}

	// Loaded phase: the page has just navigated, so there is nothing to wait
	// for — query state directly and report it as the synthetic "loaded"
	// event, which becomes transitions[0].to_state downstream.
	state, err := e.scripts.QueryState(client, context, s.deps)
	if err != nil {
		e.closeSession(s)
		return nil, &errs.BrowserError{Op: "query_state", Cause: err}
	}
	e.captureScreenshot(s, state)
	s.version++
	e.metrics.SetStateVersion(s.version)

	loaded := wire.Action{ID: wire.ActionLoaded, IsEvent: true}
	if err := proc.Codec.WriteOutbound(wire.EventsMsg{Events: []wire.Action{loaded}, State: state}); err != nil {
		e.closeSession(s)
		return nil, err
	}

	return s, nil
}

// handleRequestAction implements the inner loop's RequestAction transition.
func (e *Engine) handleRequestAction(proc *interpreter.Process, s *session, payload *wire.RequestActionPayload) error {
	if payload.Version != s.version {
		e.metrics.StaleReply()
		return proc.Codec.WriteOutbound(wire.StaleMsg{})
	}

	client, context := s.browser.Internal()

	if err := s.browser.Perform(payload.Action); err != nil {
		return err
	}
	e.metrics.ActionPerformed()

	if payload.Action.Timeout != nil {
		if err := e.scripts.InstallEventListener(client, context, s.deps); err != nil {
			return err
		}
	}

	state, err := e.scripts.QueryState(client, context, s.deps)
	if err != nil {
		return &errs.BrowserError{Op: "query_state", Cause: err}
	}
	e.captureScreenshot(s, state)
	s.version++
	e.metrics.SetStateVersion(s.version)

	if err := proc.Codec.WriteOutbound(wire.PerformedMsg{State: state}); err != nil {
		return err
	}

	if payload.Action.Timeout != nil {
		return e.observeAndReply(proc, s, *payload.Action.Timeout)
	}
	return nil
}

// handleAwaitEvents implements the inner loop's AwaitEvents transition.
func (e *Engine) handleAwaitEvents(proc *interpreter.Process, s *session, payload *wire.AwaitEventsPayload) error {
	if payload.Version != s.version {
		e.metrics.StaleReply()
		return proc.Codec.WriteOutbound(wire.StaleMsg{})
	}

	client, context := s.browser.Internal()
	if err := e.scripts.InstallEventListener(client, context, s.deps); err != nil {
		return err
	}

	return e.observeAndReply(proc, s, payload.AwaitTimeout)
}

// observeAndReply runs the observer and writes its Timeout/Events reply.
func (e *Engine) observeAndReply(proc *interpreter.Process, s *session, timeoutMs int) error {
	events, state, err := e.observe(s, timeoutMs)
	if err != nil {
		return err
	}
	if events == nil {
		return proc.Codec.WriteOutbound(wire.TimeoutMsg{State: state})
	}
	return proc.Codec.WriteOutbound(wire.EventsMsg{Events: events, State: state})
}

// observe invokes await_events(timeout) and advances the version exactly
// once. A nil events slice with no error means the timeout elapsed with no
// observed event (still advances the version and returns the freshly
// queried state, per the engine's Open Question resolution: timeout
// observations always hash the freshly queried state).
func (e *Engine) observe(s *session, timeoutMs int) (events []wire.Action, state wire.State, err error) {
	client, context := s.browser.Internal()

	result, err := e.scripts.AwaitEvents(client, context, timeoutMs)
	if err != nil {
		return nil, nil, &errs.BrowserError{Op: "await_events", Cause: err}
	}

	if result == nil {
		state, err = e.scripts.QueryState(client, context, s.deps)
		if err != nil {
			return nil, nil, &errs.BrowserError{Op: "query_state", Cause: err}
		}
		e.captureScreenshot(s, state)
		s.version++
		e.metrics.SetStateVersion(s.version)
		return nil, state, nil
	}

	e.captureScreenshot(s, result.State)
	s.version++
	e.metrics.SetStateVersion(s.version)
	return result.Events, result.State, nil
}

func (e *Engine) captureScreenshot(s *session, state wire.State) {
	if !e.cfg.CaptureScreenshots {
		return
	}
	h := hash.State(state)
	if _, ok, _ := e.store.Get(h); ok {
		return
	}
	data, _, _, _, err := s.browser.Screenshot()
	if err != nil {
		log.L().Sugar().Warnw("screenshot capture failed", "error", err)
		return
	}
	if err := e.store.Put(h, data); err != nil {
		log.L().Sugar().Warnw("screenshot store failed", "error", err, "hash", h)
	}
}

// closeSession tears down the browser session. Guaranteed-teardown: called
// on every exit path, including the deferred cleanup in Execute.
func (e *Engine) closeSession(s *session) {
	if err := s.browser.Close(); err != nil {
		log.L().Sugar().Warnw("browser session close failed", "error", err)
	}
}
