// Package interpreter spawns and supervises the external specification
// interpreter subprocess, wiring its stdin/stdout through a wire.Codec and
// its stderr to the configured log sink.
package interpreter

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/quickstrom/quickstrom-go/internal/log"
	"github.com/quickstrom/quickstrom-go/internal/wire"
)

// Options configures one interpreter subprocess invocation.
type Options struct {
	Path         string   // interpreter executable
	Module       string   // MODULE positional argument
	Origin       string   // ORIGIN positional argument
	IncludePaths []string // -I/--include, repeatable
	LogPath      string   // "" discards stderr
}

// Process is a running interpreter subprocess plus the Codec multiplexed
// over its stdin/stdout.
type Process struct {
	cmd     *exec.Cmd
	Codec   *wire.Codec
	logFile *os.File
}

// Start launches the interpreter and returns once its pipes are wired. The
// caller drives Codec.ReadInbound/WriteOutbound and must call Wait exactly
// once, on every exit path, to reap the subprocess.
func Start(opts Options) (*Process, error) {
	args := []string{opts.Module, opts.Origin}
	for _, p := range opts.IncludePaths {
		args = append(args, "-I", p)
	}

	cmd := exec.Command(opts.Path, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("interpreter: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("interpreter: stdout pipe: %w", err)
	}

	var logFile *os.File
	var stderr io.Writer = io.Discard
	if opts.LogPath != "" {
		logFile, err = os.Create(opts.LogPath)
		if err != nil {
			return nil, fmt.Errorf("interpreter: create log %s: %w", opts.LogPath, err)
		}
		stderr = logFile
	}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, fmt.Errorf("interpreter: start %s: %w", opts.Path, err)
	}

	log.L().Sugar().Debugw("interpreter started", "path", opts.Path, "pid", cmd.Process.Pid, "args", args)

	return &Process{
		cmd:     cmd,
		Codec:   wire.NewCodec(stdout, stdin),
		logFile: logFile,
	}, nil
}

// Wait blocks until the subprocess exits and reaps it, returning the exit
// code. Safe to call after the Codec has returned io.EOF on ReadInbound.
func (p *Process) Wait() (exitCode int, err error) {
	waitErr := p.cmd.Wait()
	if p.logFile != nil {
		p.logFile.Close()
	}
	if waitErr == nil {
		return 0, nil
	}
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, waitErr
}

// Kill forcibly terminates the subprocess, used on Ctrl-C cancellation.
func (p *Process) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}
