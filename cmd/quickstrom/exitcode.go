package main

import (
	"errors"

	errs "github.com/quickstrom/quickstrom-go/internal/errors"
)

// Exit codes per spec §6: 0 all passed; 1 engine/driver/usage error;
// 2 interpreter error; 3 at least one test failed.
const (
	exitOK               = 0
	exitEngineOrUsage    = 1
	exitInterpreterError = 2
	exitTestFailed       = 3
)

// exitCodeFor classifies a fatal error: cobra's own errors and errors
// returned by Engine.Execute. An interpreter failure maps to the
// interpreter exit code; every other error is an engine or Usage/Config
// error.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}
	var interpreterFailed *errs.InterpreterFailed
	if errors.As(err, &interpreterFailed) {
		return exitInterpreterError
	}
	return exitEngineOrUsage
}
