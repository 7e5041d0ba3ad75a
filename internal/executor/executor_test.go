package executor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apparray/internal/model"
)

// recordingBackend writes each step back to stdout and fails on steps listed in failOn.
type recordingBackend struct {
	mu     sync.Mutex
	ran    []string
	failOn map[string]error
}

func (b *recordingBackend) RunStep(ctx context.Context, step Step) error {
	b.mu.Lock()
	b.ran = append(b.ran, step.Command)
	b.mu.Unlock()

	fmt.Fprintf(step.Stdout, "%s\n", step.Command)
	if err, ok := b.failOn[step.Command]; ok {
		fmt.Fprintf(step.Stderr, "failed: %s\n", step.Command)
		return err
	}
	return nil
}

func (b *recordingBackend) Ran() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.ran...)
}

type collector struct {
	mu     sync.Mutex
	chunks []string
	ended  bool
}

func (c *collector) receive(chunk []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if chunk == nil {
		c.ended = true
		return false
	}
	c.chunks = append(c.chunks, string(chunk))
	return true
}

func (c *collector) text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.chunks, "")
}

func waitDone(t *testing.T, inst *Instance) {
	t.Helper()
	select {
	case <-inst.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish in time")
	}
}

func startRun(t *testing.T, backend Backend, opts Options, cmd model.Command, env model.Environment) (*Instance, *collector, *collector, chan Result) {
	t.Helper()
	eng := New("svc1", backend, opts)
	inst := eng.Runner(model.CommandStart, cmd)(env)

	out, errs := &collector{}, &collector{}
	inst.Channels.Out.OnReceive(out.receive)
	inst.Channels.Err.OnReceive(errs.receive)
	results := make(chan Result, 1)
	inst.OnResult(func(r Result) { results <- r })

	require.NoError(t, inst.Run(nil))
	return inst, out, errs, results
}

func TestInstance_RunsStepsInOrder(t *testing.T) {
	backend := &recordingBackend{}
	cmd := model.Command{Type: "shell", Steps: []string{"one", "two {{name}}", "three"}}
	env := model.Environment{ID: "test", Context: map[string]string{"name": "web"}}

	inst, out, _, results := startRun(t, backend, DefaultOptions(), cmd, env)
	waitDone(t, inst)

	assert.Equal(t, []string{"one", "two web", "three"}, backend.Ran())
	assert.Equal(t, "one\ntwo web\nthree\n", out.text())
	assert.True(t, out.ended, "expected end of stream marker")

	result := <-results
	assert.Equal(t, model.StatusOk, result.Status)
	assert.Equal(t, -1, result.FailedStep)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "svc1", result.ComponentID)
	assert.Equal(t, model.CommandStart, result.Key)
	assert.Equal(t, "shell", result.Command)
	assert.Equal(t, inst.ID(), result.RunID)
	assert.Equal(t, "one\ntwo web\nthree\n", string(result.Output))

	resp := result.Response()
	assert.Equal(t, model.CommandResponse{
		ComponentID: "svc1",
		CommandID:   model.CommandStart,
		Command:     "shell",
		Result:      []byte("one\ntwo web\nthree\n"),
		Status:      model.StatusOk,
	}, resp)
}

func TestInstance_StopsAtFirstFailure(t *testing.T) {
	backend := &recordingBackend{failOn: map[string]error{"two": errors.New("boom")}}
	cmd := model.Command{Type: "shell", Steps: []string{"one", "two", "three"}}

	inst, _, errs, results := startRun(t, backend, DefaultOptions(), cmd, model.Environment{})
	waitDone(t, inst)

	assert.Equal(t, []string{"one", "two"}, backend.Ran())
	assert.Equal(t, "failed: two\n", errs.text())

	result := <-results
	assert.Equal(t, model.StatusNotOk, result.Status)
	assert.Equal(t, 1, result.FailedStep)
	assert.Equal(t, 1, result.ExitCode)
	assert.EqualError(t, result.Err, "boom")
}

func TestInstance_ExitChannel(t *testing.T) {
	backend := &recordingBackend{}
	eng := New("svc1", backend, DefaultOptions())
	inst := eng.Runner(model.CommandStatus, model.Command{Steps: []string{"ok"}})(model.Environment{})

	exit := &collector{}
	inst.Channels.Exit.OnReceive(exit.receive)
	require.NoError(t, inst.Run(nil))
	waitDone(t, inst)

	assert.Equal(t, "0", exit.text())
	assert.True(t, exit.ended)
}

func TestInstance_RunTwice(t *testing.T) {
	eng := New("svc1", &recordingBackend{}, DefaultOptions())
	inst := eng.Runner(model.CommandStart, model.Command{Steps: []string{"a"}})(model.Environment{})

	require.NoError(t, inst.Run(nil))
	assert.ErrorIs(t, inst.Run(nil), ErrAlreadyStarted)
	waitDone(t, inst)
}

func TestInstance_ConsumerStopsDelivery(t *testing.T) {
	backend := BackendFunc(func(ctx context.Context, step Step) error {
		for i := 0; i < 10; i++ {
			fmt.Fprintf(step.Stdout, "line %d\n", i)
		}
		return nil
	})
	eng := New("svc1", backend, Options{QueueSize: 1})
	inst := eng.Runner(model.CommandStart, model.Command{Steps: []string{"x"}})(model.Environment{})

	var mu sync.Mutex
	var received []string
	inst.Channels.Out.OnReceive(func(chunk []byte) bool {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, string(chunk))
		return len(received) < 2
	})
	results := make(chan Result, 1)
	inst.OnResult(func(r Result) { results <- r })

	require.NoError(t, inst.Run(nil))
	waitDone(t, inst)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"line 0\n", "line 1\n"}, received)
	assert.True(t, inst.Channels.Out.Stopped())

	result := <-results
	assert.Equal(t, model.StatusOk, result.Status, "stopping a channel must not cancel the run")
}

func TestInstance_InvalidateDropsDeliveriesAndResult(t *testing.T) {
	release := make(chan struct{})
	backend := BackendFunc(func(ctx context.Context, step Step) error {
		fmt.Fprintln(step.Stdout, "before")
		select {
		case <-release:
		case <-ctx.Done():
		}
		fmt.Fprintln(step.Stdout, "after")
		return context.Cause(ctx)
	})
	eng := New("svc1", backend, DefaultOptions())
	inst := eng.Runner(model.CommandStart, model.Command{Steps: []string{"x"}})(model.Environment{})

	gotFirst := make(chan struct{})
	var once sync.Once
	var mu sync.Mutex
	var received []string
	inst.Channels.Out.OnReceive(func(chunk []byte) bool {
		mu.Lock()
		received = append(received, string(chunk))
		mu.Unlock()
		once.Do(func() { close(gotFirst) })
		return true
	})
	called := false
	inst.OnResult(func(Result) { called = true })

	require.NoError(t, inst.Run(nil))
	<-gotFirst
	inst.Invalidate()
	close(release)
	waitDone(t, inst)

	assert.False(t, called, "result must not be reported after invalidation")
	assert.True(t, inst.Invalidated())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"before\n"}, received)
}

func TestInstance_InvalidateBeforeRun(t *testing.T) {
	eng := New("svc1", &recordingBackend{}, DefaultOptions())
	inst := eng.Runner(model.CommandStart, model.Command{Steps: []string{"a"}})(model.Environment{})

	inst.Invalidate()
	inst.Invalidate()
	assert.ErrorIs(t, inst.Run(nil), ErrInvalidated)
	waitDone(t, inst)
}

func TestInstance_IdleTimeout(t *testing.T) {
	backend := BackendFunc(func(ctx context.Context, step Step) error {
		<-ctx.Done()
		return context.Cause(ctx)
	})
	opts := DefaultOptions()
	opts.IdleTimeout = 20 * time.Millisecond

	inst, _, _, results := startRun(t, backend, opts, model.Command{Steps: []string{"hang", "never"}}, model.Environment{})
	waitDone(t, inst)

	result := <-results
	assert.Equal(t, model.StatusNotOk, result.Status)
	assert.Equal(t, 0, result.FailedStep)
	assert.ErrorIs(t, result.Err, ErrIdleTimeout)
}

func TestRunner_StepsAreImmutable(t *testing.T) {
	backend := &recordingBackend{}
	cmd := model.Command{Steps: []string{"original"}}
	eng := New("svc1", backend, DefaultOptions())
	runner := eng.Runner(model.CommandStart, cmd)
	cmd.Steps[0] = "mutated"

	inst := runner(model.Environment{})
	assert.Equal(t, []string{"original"}, inst.Steps())
	require.NoError(t, inst.Run(nil))
	waitDone(t, inst)
	assert.Equal(t, []string{"original"}, backend.Ran())
}

func TestEnvironmentPairs(t *testing.T) {
	pairs := environmentPairs(model.Environment{
		ID:      "dev",
		Context: map[string]string{"B": "2", "A": "1", "not valid": "x"},
	})
	assert.Equal(t, []string{EnvironmentIDVar + "=dev", "A=1", "B=2"}, pairs)
}

func TestShellBackend(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	shell, _ := exec.LookPath("sh")

	opts := DefaultOptions()
	env := model.Environment{ID: "dev", Context: map[string]string{"GREETING": "hi"}}
	cmd := model.Command{Type: "shell", Steps: []string{"echo $GREETING {{who}} $1", "exit 3", "echo unreachable"}}
	env.Context["who"] = "there"

	inst, out, _, results := startRun(t, NewShellBackend(shell), opts, cmd, env)
	waitDone(t, inst)

	// The template expansion runs first, then the shell resolves $GREETING.
	assert.Equal(t, "hi there\n", out.text())
	result := <-results
	assert.Equal(t, model.StatusNotOk, result.Status)
	assert.Equal(t, 1, result.FailedStep)
	assert.Equal(t, 3, result.ExitCode)
}

func TestExitCodeOf(t *testing.T) {
	assert.Equal(t, 0, exitCodeOf(nil))
	assert.Equal(t, 1, exitCodeOf(errors.New("x")))
}
