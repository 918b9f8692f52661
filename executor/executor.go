// Package executor runs the external commands the pipeline depends on (the
// build recipe runner, the archiving tool, toolchain probes) with output
// capture, environment injection, and context support for cancellation.
//
// Pipeline steps are never retried, so the executor deliberately has no retry
// machinery: a command runs once and its exit status is the contract.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
)

// Result holds the output and exit status from a command execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner is the interface pipeline steps use to invoke external commands.
// It exists so tests can substitute a fake without spawning processes.
type Runner interface {
	// Run executes program with args and blocks until it exits.
	// A non-zero exit status is returned as an error alongside the Result.
	Run(ctx context.Context, program string, args []string, opts ...Option) (*Result, error)
}

// Options configures a single command execution.
type Options struct {
	// WorkingDir is the directory the command runs in. Empty means inherit.
	WorkingDir string

	// Env holds variables appended to the current process environment.
	Env map[string]string

	// RedirectToConsole mirrors the command's output to the parent's
	// stdout/stderr in addition to capturing it.
	RedirectToConsole bool

	// StdoutWriter and StderrWriter receive the command's output streams in
	// addition to capture, when set.
	StdoutWriter io.Writer
	StderrWriter io.Writer
}

// Option mutates Options.
type Option func(*Options)

// WithWorkingDir sets the working directory for the command.
func WithWorkingDir(dir string) Option {
	return func(o *Options) { o.WorkingDir = dir }
}

// WithEnv appends environment variables to the command's environment.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}
		for k, v := range env {
			o.Env[k] = v
		}
	}
}

// WithEnvVar appends a single environment variable to the command's environment.
func WithEnvVar(key, value string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, 1)
		}
		o.Env[key] = value
	}
}

// WithConsoleRedirect mirrors command output to the parent's console.
func WithConsoleRedirect() Option {
	return func(o *Options) { o.RedirectToConsole = true }
}

// WithStdoutWriter adds a writer receiving the command's stdout.
func WithStdoutWriter(w io.Writer) Option {
	return func(o *Options) { o.StdoutWriter = w }
}

// WithStderrWriter adds a writer receiving the command's stderr.
func WithStderrWriter(w io.Writer) Option {
	return func(o *Options) { o.StderrWriter = w }
}

// Local runs commands as child processes of the current process.
type Local struct{}

// NewLocal returns a Runner backed by os/exec.
func NewLocal() *Local {
	return &Local{}
}

// Run implements Runner.
func (l *Local) Run(
	ctx context.Context,
	program string,
	args []string,
	opts ...Option,
) (*Result, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	cmd := exec.CommandContext(ctx, program, args...)
	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}
	if len(options.Env) > 0 {
		cmd.Env = append(os.Environ(), flattenEnv(options.Env)...)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = buildWriter(&stdoutBuf, os.Stdout, options.RedirectToConsole, options.StdoutWriter)
	cmd.Stderr = buildWriter(&stderrBuf, os.Stderr, options.RedirectToConsole, options.StderrWriter)

	err := cmd.Run()

	result := &Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		ExitCode: exitCode(err),
	}

	if err != nil {
		return result, fmt.Errorf("command %s failed: %w", program, err)
	}
	return result, nil
}

// LookPath reports whether program is resolvable on PATH.
// Used by toolchain preflight checks before a build is attempted.
func LookPath(program string) error {
	if _, err := exec.LookPath(program); err != nil {
		return fmt.Errorf("program %q not found on PATH: %w", program, err)
	}
	return nil
}

func buildWriter(capture *bytes.Buffer, console io.Writer, redirect bool, extra io.Writer) io.Writer {
	writers := []io.Writer{capture}
	if redirect {
		writers = append(writers, console)
	}
	if extra != nil {
		writers = append(writers, extra)
	}
	if len(writers) == 1 {
		return capture
	}
	return io.MultiWriter(writers...)
}

func flattenEnv(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	flat := make([]string, 0, len(env))
	for _, k := range keys {
		flat = append(flat, k+"="+env[k])
	}
	return flat
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
