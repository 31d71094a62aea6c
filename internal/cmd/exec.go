// Package cmd provides helpers for executing shell commands with proper error handling.
package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/raphi011/iwt/internal/log"
)

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes external commands. Implementations must not interpret a
// non-zero exit as anything other than an *ExitError.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (Result, error)
}

// ExitError reports a command that ran but exited with a non-zero status.
type ExitError struct {
	Name   string
	Args   []string
	Result Result
}

// Error returns stderr, falling back to stdout, falling back to a generic
// message naming the command.
func (e *ExitError) Error() string {
	if msg := strings.TrimSpace(string(e.Result.Stderr)); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(string(e.Result.Stdout)); msg != "" {
		return msg
	}
	return fmt.Sprintf("%s exited with status %d", Format(e.Name, e.Args...), e.Result.ExitCode)
}

// Exec is the Runner backed by os/exec.
type Exec struct{}

// Run executes name with args in dir. Stdout and stderr are captured.
// A cancelled context is reported as the context error.
func (Exec) Run(ctx context.Context, dir, name string, args ...string) (Result, error) {
	done := log.FromContext(ctx).Command(dir, name, args...)
	start := time.Now()

	c := exec.CommandContext(ctx, name, args...)
	c.Dir = dir
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	done(time.Since(start))

	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &ExitError{Name: name, Args: args, Result: res}
	}
	return res, err
}

// Output runs a command through r and returns its stdout.
func Output(ctx context.Context, r Runner, dir, name string, args ...string) ([]byte, error) {
	res, err := r.Run(ctx, dir, name, args...)
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}
