package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"apparray/internal/metrics"
	"apparray/internal/model"
	"apparray/pkg/logging"
)

// ErrAlreadyConnected is returned by Connect while a session loop is running.
var ErrAlreadyConnected = errors.New("synchronizer already connected")

// Router receives backend notifications.
type Router interface {
	RouteCommandResponse(resp model.CommandResponse) error
	RouteUpdate(update model.UpdateResponse) error
}

// Options configures a Service.
type Options struct {
	Address string
	// ReconnectInterval re-dials after a failure when positive.
	ReconnectInterval time.Duration
	Metrics           *metrics.Recorder
}

// Service maintains the backend session.
type Service struct {
	transport Transport
	router    Router
	opts      Options

	// sendMu orders snapshot sends so an older snapshot never follows a
	// newer one on the same session.
	sendMu sync.Mutex

	mu       sync.Mutex
	session  Session
	snapshot *Envelope
	// generation counts snapshots; sent is the last generation delivered on
	// the current session.
	generation uint64
	sent       uint64
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewService creates a disconnected service.
func NewService(transport Transport, router Router, opts Options) *Service {
	return &Service{transport: transport, router: router, opts: opts}
}

// Address returns the backend address.
func (s *Service) Address() string { return s.opts.Address }

// Connected reports whether a session is established.
func (s *Service) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// Connect starts the session loop and returns immediately. onConnected runs
// once per established session; onConnectionError runs for every dial
// failure or session loss. Either callback may be nil.
func (s *Service) Connect(ctx context.Context, onConnected func(), onConnectionError func(error)) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go s.loop(ctx, done, onConnected, onConnectionError)
	return nil
}

// Disconnect stops the session loop and waits for it to exit.
func (s *Service) Disconnect() {
	s.mu.Lock()
	cancel, done, sess := s.cancel, s.done, s.session
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	if sess != nil {
		_ = sess.Close()
	}
	<-done

	s.mu.Lock()
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()
	logging.Info("Sync", "Disconnected from %s", s.opts.Address)
}

// SendModel sends the whole topology. Without a session the snapshot is kept
// and sent on the next connect.
func (s *Service) SendModel(ctx context.Context, app *model.Application) error {
	if app == nil {
		app = model.EmptyApplication()
	}
	env, err := NewEnvelope(TypeModel, app)
	if err != nil {
		return err
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.snapshot = &env
	sess := s.session
	s.mu.Unlock()

	if sess == nil {
		logging.Debug("Sync", "Not connected, keeping snapshot of %q for the next session", app.ID)
		return nil
	}
	if err := sess.Send(ctx, env); err != nil {
		return fmt.Errorf("failed to send model: %w", err)
	}
	s.markSent(sess, gen)
	logging.Debug("Sync", "Sent snapshot of %q", app.ID)
	return nil
}

// resendSnapshot sends the latest snapshot on a new session unless a
// SendModel already delivered it there.
func (s *Service) resendSnapshot(ctx context.Context, sess Session) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	snapshot, gen, sent := s.snapshot, s.generation, s.sent
	s.mu.Unlock()
	if snapshot == nil || sent >= gen {
		return nil
	}
	if err := sess.Send(ctx, *snapshot); err != nil {
		return fmt.Errorf("failed to send pending model: %w", err)
	}
	s.markSent(sess, gen)
	return nil
}

func (s *Service) markSent(sess Session, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == sess && gen > s.sent {
		s.sent = gen
	}
}

func (s *Service) loop(ctx context.Context, done chan struct{}, onConnected func(), onConnectionError func(error)) {
	defer close(done)

	report := func(err error) {
		s.opts.Metrics.ConnectionError()
		logging.Warn("Sync", "Backend connection to %s: %v", s.opts.Address, err)
		if onConnectionError != nil {
			onConnectionError(err)
		}
	}

	for {
		err := s.runSession(ctx, onConnected)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			report(err)
		}
		if s.opts.ReconnectInterval <= 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.opts.ReconnectInterval):
			logging.Debug("Sync", "Reconnecting to %s", s.opts.Address)
		}
	}
}

// runSession runs one dial-and-read cycle.
func (s *Service) runSession(ctx context.Context, onConnected func()) error {
	sess, err := s.transport.Dial(ctx, s.opts.Address)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.session = sess
	s.sent = 0
	s.mu.Unlock()
	s.opts.Metrics.SetConnected(true)
	logging.Info("Sync", "Connected to %s", s.opts.Address)

	defer func() {
		s.mu.Lock()
		s.session = nil
		s.mu.Unlock()
		s.opts.Metrics.SetConnected(false)
		_ = sess.Close()
	}()

	if onConnected != nil {
		onConnected()
	}
	if err := s.resendSnapshot(ctx, sess); err != nil {
		return err
	}
	return s.readLoop(ctx, sess)
}

func (s *Service) readLoop(ctx context.Context, sess Session) error {
	for {
		env, err := sess.Receive(ctx)
		if err != nil {
			if errors.Is(err, ErrMalformedEnvelope) {
				logging.Warn("Sync", "Ignoring message: %v", err)
				continue
			}
			return err
		}
		s.dispatch(env)
	}
}

func (s *Service) dispatch(env Envelope) {
	switch env.Type {
	case TypeCommand:
		var resp model.CommandResponse
		if err := env.Decode(&resp); err != nil {
			logging.Warn("Sync", "Ignoring command notification: %v", err)
			return
		}
		if err := s.router.RouteCommandResponse(resp); err != nil {
			logging.Debug("Sync", "Command notification not applied: %v", err)
		}
	case TypeUpdate:
		var update model.UpdateResponse
		if err := env.Decode(&update); err != nil {
			logging.Warn("Sync", "Ignoring update notification: %v", err)
			return
		}
		if err := s.router.RouteUpdate(update); err != nil {
			logging.Debug("Sync", "Update notification not applied: %v", err)
		}
	default:
		logging.Debug("Sync", "Ignoring message of type %q", env.Type)
	}
}
