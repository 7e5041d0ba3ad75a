package executor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"apparray/internal/model"
	"apparray/pkg/logging"
)

// Channels groups the streams of a run instance.
type Channels struct {
	Out  *Channel
	Err  *Channel
	Exit *Channel
}

// Instance is one execution of a command's steps.
type Instance struct {
	id          string
	componentID string
	key         model.CommandKey
	label       string
	steps       []string
	env         model.Environment
	backend     Backend
	opts        Options

	Channels Channels

	mu          sync.Mutex
	started     bool
	invalidated bool
	onResult    func(Result)

	ctx       context.Context
	cancel    context.CancelCauseFunc
	abort     chan struct{}
	abortOnce sync.Once
	done      chan struct{}
}

func newInstance(componentID string, key model.CommandKey, label string, steps []string, env model.Environment, backend Backend, opts Options) *Instance {
	ctx, cancel := context.WithCancelCause(context.Background())
	abort := make(chan struct{})
	return &Instance{
		id:          uuid.New().String(),
		componentID: componentID,
		key:         key,
		label:       label,
		steps:       steps,
		env:         env,
		backend:     backend,
		opts:        opts,
		Channels: Channels{
			Out:  newChannel("out", opts.QueueSize, abort),
			Err:  newChannel("err", opts.QueueSize, abort),
			Exit: newChannel("exit", 1, abort),
		},
		ctx:    ctx,
		cancel: cancel,
		abort:  abort,
		done:   make(chan struct{}),
	}
}

// ID returns the unique run id.
func (i *Instance) ID() string { return i.id }

// Key returns the command key being run.
func (i *Instance) Key() model.CommandKey { return i.key }

// Steps returns a copy of the expanded steps.
func (i *Instance) Steps() []string {
	out := make([]string, len(i.steps))
	copy(out, i.steps)
	return out
}

// OnResult registers the callback that receives the terminal result.
func (i *Instance) OnResult(fn func(Result)) {
	i.mu.Lock()
	i.onResult = fn
	i.mu.Unlock()
}

// Done is closed once the run has finished and its channels are drained.
func (i *Instance) Done() <-chan struct{} { return i.done }

// Run starts executing the steps with args passed as positional parameters.
// It returns immediately; the outcome arrives through OnResult.
func (i *Instance) Run(args []string) error {
	i.mu.Lock()
	if i.invalidated {
		i.mu.Unlock()
		return ErrInvalidated
	}
	if i.started {
		i.mu.Unlock()
		return ErrAlreadyStarted
	}
	i.started = true
	i.mu.Unlock()

	argv := make([]string, len(args))
	copy(argv, args)
	go i.execute(argv)
	return nil
}

// Invalidate detaches the instance: pending and future chunks are dropped,
// the run is cancelled and no result is reported. It is safe to call more than once.
func (i *Instance) Invalidate() {
	i.mu.Lock()
	i.invalidated = true
	started := i.started
	i.mu.Unlock()

	i.Channels.Out.drop()
	i.Channels.Err.drop()
	i.Channels.Exit.drop()
	i.abortOnce.Do(func() { close(i.abort) })
	i.cancel(ErrInvalidated)

	if !started {
		i.closeChannels()
		i.mu.Lock()
		if !i.started {
			i.started = true
			close(i.done)
		}
		i.mu.Unlock()
	}
}

// Invalidated reports whether Invalidate was called.
func (i *Instance) Invalidated() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.invalidated
}

func (i *Instance) execute(args []string) {
	defer close(i.done)

	start := time.Now()
	watchdog := newIdleWatchdog(i.opts.IdleTimeout, func() { i.cancel(ErrIdleTimeout) })
	capture := &limitedBuffer{limit: i.opts.OutputLimit}
	stdout := &activityWriter{dst: i.Channels.Out, capture: capture, touch: watchdog.touch}
	stderr := &activityWriter{dst: i.Channels.Err, touch: watchdog.touch}

	failedStep := -1
	var runErr error
	for idx, step := range i.steps {
		if err := context.Cause(i.ctx); err != nil {
			failedStep, runErr = idx, err
			break
		}
		logging.Debug("Executor", "Run %s %s/%s step %d: %s", i.id, i.componentID, i.key, idx, step)
		err := i.backend.RunStep(i.ctx, Step{
			Index:   idx,
			Command: step,
			Args:    args,
			Env:     i.env,
			Stdout:  stdout,
			Stderr:  stderr,
		})
		if err != nil {
			failedStep, runErr = idx, err
			break
		}
	}
	watchdog.stop()

	if runErr != nil && errors.Is(context.Cause(i.ctx), ErrIdleTimeout) && !errors.Is(runErr, ErrIdleTimeout) {
		runErr = fmt.Errorf("%w after %s: %v", ErrIdleTimeout, i.opts.IdleTimeout, runErr)
	}

	exitCode := exitCodeOf(runErr)
	_, _ = i.Channels.Exit.Write([]byte(strconv.Itoa(exitCode)))
	i.closeChannels()
	<-i.Channels.Out.done
	<-i.Channels.Err.done
	<-i.Channels.Exit.done

	result := Result{
		RunID:       i.id,
		ComponentID: i.componentID,
		Key:         i.key,
		Command:     i.label,
		Output:      capture.Bytes(),
		Status:      model.StatusOf(runErr == nil),
		FailedStep:  failedStep,
		ExitCode:    exitCode,
		Err:         runErr,
		Duration:    time.Since(start),
	}
	i.cancel(nil)

	i.mu.Lock()
	callback := i.onResult
	invalidated := i.invalidated
	i.mu.Unlock()

	if invalidated {
		logging.Debug("Executor", "Run %s finished after invalidation, dropping result", i.id)
		return
	}
	if runErr != nil {
		logging.Warn("Executor", "Run %s %s/%s failed at step %d: %v", i.id, i.componentID, i.key, failedStep, runErr)
	}
	if callback != nil {
		callback(result)
	}
}

func (i *Instance) closeChannels() {
	i.Channels.Out.close()
	i.Channels.Err.close()
	i.Channels.Exit.close()
}

// activityWriter forwards output to a channel, feeds the idle watchdog and
// optionally captures a copy.
type activityWriter struct {
	dst     *Channel
	capture *limitedBuffer
	touch   func()
}

func (w *activityWriter) Write(p []byte) (int, error) {
	w.touch()
	if w.capture != nil {
		w.capture.Write(p)
	}
	return w.dst.Write(p)
}

type limitedBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (b *limitedBuffer) Write(p []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	room := b.limit - len(b.buf)
	if room <= 0 {
		return
	}
	if len(p) > room {
		p = p[:room]
	}
	b.buf = append(b.buf, p...)
}

func (b *limitedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buf) == 0 {
		return nil
	}
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out
}

type idleWatchdog struct {
	timeout time.Duration
	timer   *time.Timer
	fired   atomic.Bool
}

func newIdleWatchdog(timeout time.Duration, onIdle func()) *idleWatchdog {
	w := &idleWatchdog{timeout: timeout}
	if timeout > 0 {
		w.timer = time.AfterFunc(timeout, func() {
			w.fired.Store(true)
			onIdle()
		})
	}
	return w
}

func (w *idleWatchdog) touch() {
	if w.timer != nil && !w.fired.Load() {
		w.timer.Reset(w.timeout)
	}
}

func (w *idleWatchdog) stop() {
	if w.timer != nil {
		w.timer.Stop()
	}
}
