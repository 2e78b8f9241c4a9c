// Package clientscripts implements the ClientScripts component (spec §4.2):
// loading the three browser-side scripts from QUICKSTROM_CLIENT_SIDE_DIRECTORY
// and invoking them over BiDi, normalizing every element handle in their
// return value into a stable ElementRef.
package clientscripts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/quickstrom/quickstrom-go/internal/bidi"
	"github.com/quickstrom/quickstrom-go/internal/log"
	"github.com/quickstrom/quickstrom-go/internal/wire"
)

const (
	queryStateFile          = "query_state.js"
	installEventListenerFile = "install_event_listener.js"
	awaitEventsFile         = "await_events.js"
)

// Scripts holds the three opaque script bodies loaded from disk.
type Scripts struct {
	dir                 string
	queryState          string
	installEventListener string
	awaitEvents         string
}

// Load reads the three scripts from dir. Each is treated as an opaque
// expression evaluating to a function: `(deps) => State`,
// `(deps) => undefined`, and `(timeoutMs) => {events, state} | null`
// respectively.
func Load(dir string) (*Scripts, error) {
	qs, err := readScript(dir, queryStateFile)
	if err != nil {
		return nil, err
	}
	iel, err := readScript(dir, installEventListenerFile)
	if err != nil {
		return nil, err
	}
	ae, err := readScript(dir, awaitEventsFile)
	if err != nil {
		return nil, err
	}

	return &Scripts{
		dir:                  dir,
		queryState:           qs,
		installEventListener: iel,
		awaitEvents:          ae,
	}, nil
}

func readScript(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("clientscripts: read %s: %w", path, err)
	}
	return string(data), nil
}

// Watch installs an fsnotify watcher over the script directory and calls
// onChange whenever one of the three files is rewritten, so a long-running
// check process can pick up edited scripts without restarting (development
// convenience; not used by the core control loop).
func (s *Scripts) Watch(onChange func()) (close func() error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("clientscripts: create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("clientscripts: watch %s: %w", s.dir, err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					log.L().Sugar().Debugw("client script changed", "file", event.Name)
					onChange()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.L().Sugar().Warnw("client script watcher error", "error", err)
			}
		}
	}()

	return watcher.Close, nil
}

// dependenciesJSON marshals wire.Dependencies the way the query_state and
// install_event_listener scripts expect their argument.
func dependenciesJSON(deps wire.Dependencies) (string, error) {
	b, err := json.Marshal(deps)
	if err != nil {
		return "", fmt.Errorf("clientscripts: marshal dependencies: %w", err)
	}
	return string(b), nil
}

// QueryState invokes query_state(dependencies) and returns the resulting
// State with every element handle replaced by its sharedId-based ElementRef.
func (s *Scripts) QueryState(client *bidi.Client, context string, deps wire.Dependencies) (wire.State, error) {
	depsJSON, err := dependenciesJSON(deps)
	if err != nil {
		return nil, err
	}

	raw, err := client.CallScript(context, s.queryState, depsJSON)
	if err != nil {
		return nil, fmt.Errorf("clientscripts: query_state: %w", err)
	}

	var state wire.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("clientscripts: decode query_state result: %w", err)
	}
	return state, nil
}

// InstallEventListener invokes install_event_listener(dependencies), arming
// the in-page observer the await_events script later drains.
func (s *Scripts) InstallEventListener(client *bidi.Client, context string, deps wire.Dependencies) error {
	depsJSON, err := dependenciesJSON(deps)
	if err != nil {
		return err
	}
	if _, err := client.CallScript(context, s.installEventListener, depsJSON); err != nil {
		return fmt.Errorf("clientscripts: install_event_listener: %w", err)
	}
	return nil
}

// AwaitResult is the decoded {events, state} shape await_events returns, or
// a nil AwaitResult if the timeout elapsed with no observed event.
type AwaitResult struct {
	Events []wire.Action
	State  wire.State
}

// AwaitEvents invokes await_events(timeoutMs) and blocks until it resolves.
// A nil result (not an error) means the timeout elapsed with no event.
func (s *Scripts) AwaitEvents(client *bidi.Client, context string, timeoutMs int) (*AwaitResult, error) {
	raw, err := client.CallScript(context, s.awaitEvents, fmt.Sprintf("%d", timeoutMs))
	if err != nil {
		return nil, fmt.Errorf("clientscripts: await_events: %w", err)
	}

	if string(raw) == "null" {
		return nil, nil
	}

	var result struct {
		Events []wire.Action `json:"events"`
		State  wire.State    `json:"state"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("clientscripts: decode await_events result: %w", err)
	}
	return &AwaitResult{Events: result.Events, State: result.State}, nil
}
