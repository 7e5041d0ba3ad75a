package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"time"

	"apparray/internal/model"
)

// Step is one command line handed to a Backend.
type Step struct {
	Index   int
	Command string
	Args    []string
	Env     model.Environment
	Stdout  io.Writer
	Stderr  io.Writer
}

// Backend executes a single step. It must honor ctx cancellation and write
// the step's output to Stdout and Stderr before returning.
type Backend interface {
	RunStep(ctx context.Context, step Step) error
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, step Step) error

// RunStep calls f.
func (f BackendFunc) RunStep(ctx context.Context, step Step) error {
	return f(ctx, step)
}

const (
	// DefaultShell is used when a ShellBackend has no shell configured.
	DefaultShell = "/bin/sh"

	// EnvironmentIDVar carries the environment id into every step.
	EnvironmentIDVar = "APPARRAY_ENVIRONMENT"

	defaultWaitDelay = 2 * time.Second
)

// execCommandContext is a variable to allow mocking in tests
var execCommandContext = exec.CommandContext

var envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ShellBackend runs each step with "<shell> -c <step>". Platform environment
// variables in the step are resolved by the shell; the environment's context
// entries are exported as additional variables.
type ShellBackend struct {
	Shell string
	Dir   string
	// WaitDelay bounds how long to wait for output pipes after the process exits
	// or is killed.
	WaitDelay time.Duration
}

// NewShellBackend returns a backend using shell, or DefaultShell when empty.
func NewShellBackend(shell string) *ShellBackend {
	if shell == "" {
		shell = DefaultShell
	}
	return &ShellBackend{Shell: shell, WaitDelay: defaultWaitDelay}
}

// RunStep implements Backend.
func (b *ShellBackend) RunStep(ctx context.Context, step Step) error {
	shell := b.Shell
	if shell == "" {
		shell = DefaultShell
	}

	args := append([]string{"-c", step.Command, "apparray"}, step.Args...)
	cmd := execCommandContext(ctx, shell, args...)
	cmd.Env = append(os.Environ(), environmentPairs(step.Env)...)
	cmd.Dir = b.Dir
	cmd.Stdout = step.Stdout
	cmd.Stderr = step.Stderr
	cmd.WaitDelay = b.WaitDelay

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("step %d %q: %w", step.Index, step.Command, err)
	}
	return nil
}

func environmentPairs(env model.Environment) []string {
	keys := make([]string, 0, len(env.Context))
	for k := range env.Context {
		if envNamePattern.MatchString(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)+1)
	if env.ID != "" {
		pairs = append(pairs, EnvironmentIDVar+"="+env.ID)
	}
	for _, k := range keys {
		pairs = append(pairs, k+"="+env.Context[k])
	}
	return pairs
}
