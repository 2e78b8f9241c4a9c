// Package browser discovers and launches a local browser binary in BiDi
// mode, the same process-management idiom the teacher's launcher_unix.go /
// launcher_windows.go helpers support (process groups, kill-by-pid,
// wait-for-dead), generalized here to also find the binary and parse its
// BiDi WebSocket URL from stderr.
package browser

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"time"

	errs "github.com/quickstrom/quickstrom-go/internal/errors"
	"github.com/quickstrom/quickstrom-go/internal/log"
)

// LaunchOptions configures a browser launch.
type LaunchOptions struct {
	Browser    string // "chrome" or "firefox"; defaults to "chrome"
	Headless   bool
	BinaryPath string // explicit override; skips discovery
	ProfileDir string // --user-data-dir / -profile; empty means a temp dir
}

// LaunchResult holds the launched browser's BiDi endpoint and lifecycle
// handle.
type LaunchResult struct {
	WebSocketURL string
	PID          int
	cmd          *exec.Cmd
	profileDir   string
	ownsProfile  bool
}

// Close terminates the browser process group and waits briefly for exit,
// then removes any temp profile directory this launch created.
func (r *LaunchResult) Close() error {
	if r.cmd == nil || r.cmd.Process == nil {
		return nil
	}
	pid := r.cmd.Process.Pid
	killByPid(pid)
	waitForProcessesDead([]int{pid}, 5*time.Second)

	if r.ownsProfile && r.profileDir != "" {
		os.RemoveAll(r.profileDir)
	}
	return nil
}

// bidiURLPatterns matches the listening line each browser prints to
// stderr once its BiDi endpoint is up: Chrome/Chromium print a DevTools
// line, Firefox's remote agent prints its own "WebDriver BiDi" line.
var bidiURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`DevTools listening on (ws://\S+)`),
	regexp.MustCompile(`WebDriver BiDi listening on (ws://\S+)`),
}

// chromeCandidates lists the binary names/paths this platform typically
// installs Chrome or Chromium under.
func chromeCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"google-chrome",
			"chromium",
		}
	case "windows":
		return []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			"chrome.exe",
		}
	default:
		return []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"}
	}
}

func firefoxCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/Applications/Firefox.app/Contents/MacOS/firefox", "firefox"}
	case "windows":
		return []string{`C:\Program Files\Mozilla Firefox\firefox.exe`, "firefox.exe"}
	default:
		return []string{"firefox", "firefox-esr"}
	}
}

// findBinary resolves the first candidate that exists on PATH or as an
// absolute path.
func findBinary(candidates []string) (string, error) {
	for _, c := range candidates {
		if strings.ContainsAny(c, `/\`) {
			if info, err := os.Stat(c); err == nil && !info.IsDir() {
				return c, nil
			}
			continue
		}
		if p, err := exec.LookPath(c); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("none of %v found", candidates)
}

// Launch starts a local browser with BiDi enabled and returns its
// WebSocket endpoint once the listening line appears on stderr.
func Launch(opts LaunchOptions) (*LaunchResult, error) {
	name := opts.Browser
	if name == "" {
		name = "chrome"
	}

	var binary string
	var err error
	if opts.BinaryPath != "" {
		binary = opts.BinaryPath
	} else {
		switch name {
		case "chrome":
			binary, err = findBinary(chromeCandidates())
		case "firefox":
			binary, err = findBinary(firefoxCandidates())
		default:
			return nil, &errs.UsageError{Detail: fmt.Sprintf("unsupported browser %q", name)}
		}
		if err != nil {
			return nil, &errs.DriverMissing{Browser: name, Cause: err}
		}
	}

	profileDir := opts.ProfileDir
	ownsProfile := false
	if profileDir == "" {
		profileDir, err = os.MkdirTemp("", "quickstrom-profile-*")
		if err != nil {
			return nil, fmt.Errorf("create profile dir: %w", err)
		}
		ownsProfile = true
	}

	args := launchArgs(name, opts.Headless, profileDir)
	cmd := exec.Command(binary, args...)
	setProcGroup(cmd)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("attach stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}

	wsURL, err := waitForWebSocketURL(stderr, 30*time.Second)
	if err != nil {
		killByPid(cmd.Process.Pid)
		if ownsProfile {
			os.RemoveAll(profileDir)
		}
		return nil, fmt.Errorf("%s did not expose a BiDi endpoint: %w", name, err)
	}

	log.L().Sugar().Debugw("browser launched", "browser", name, "pid", cmd.Process.Pid, "ws", wsURL)

	return &LaunchResult{
		WebSocketURL: wsURL,
		PID:          cmd.Process.Pid,
		cmd:          cmd,
		profileDir:   profileDir,
		ownsProfile:  ownsProfile,
	}, nil
}

func launchArgs(browserName string, headless bool, profileDir string) []string {
	var args []string
	switch browserName {
	case "firefox":
		args = []string{"--remote-debugging-port=0", "--profile", profileDir, "--no-remote"}
		if headless {
			args = append(args, "--headless")
		}
	default: // chrome
		args = []string{
			"--remote-debugging-port=0",
			"--user-data-dir=" + profileDir,
			"--no-first-run",
			"--no-default-browser-check",
		}
		if headless {
			args = append(args, "--headless=new")
		}
	}
	args = append(args, platformChromeArgs()...)
	return args
}

// waitForWebSocketURL scans the browser's stderr for its BiDi listening
// line, the same discovery convention Chrome/Chromium/Firefox use for
// DevTools/BiDi endpoints.
func waitForWebSocketURL(stderr interface{ Read([]byte) (int, error) }, timeout time.Duration) (string, error) {
	type result struct {
		url string
		err error
	}
	done := make(chan result, 1)

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			line := scanner.Text()
			for _, pattern := range bidiURLPatterns {
				if m := pattern.FindStringSubmatch(line); m != nil {
					done <- result{url: m[1]}
					return
				}
			}
		}
		done <- result{err: fmt.Errorf("stderr closed before a BiDi endpoint appeared")}
	}()

	select {
	case r := <-done:
		return r.url, r.err
	case <-time.After(timeout):
		return "", fmt.Errorf("timed out after %s", timeout)
	}
}
