package synchronizer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultPath is appended to backend addresses that carry no path.
const DefaultPath = "/ws"

// Session is an established connection to the backend.
type Session interface {
	Send(ctx context.Context, env Envelope) error
	Receive(ctx context.Context) (Envelope, error)
	Close() error
}

// Transport opens sessions to a backend address.
type Transport interface {
	Dial(ctx context.Context, address string) (Session, error)
}

// WebsocketTransport reaches the backend over a websocket.
type WebsocketTransport struct {
	Dialer *websocket.Dialer
	Header http.Header
}

// NewWebsocketTransport returns a transport using the default dialer.
func NewWebsocketTransport() *WebsocketTransport {
	return &WebsocketTransport{Dialer: websocket.DefaultDialer}
}

// Dial connects to address, converting http(s) schemes to ws(s).
func (t *WebsocketTransport) Dial(ctx context.Context, address string) (Session, error) {
	target, err := WebsocketURL(address)
	if err != nil {
		return nil, err
	}
	dialer := t.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, target, t.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect to %s (HTTP %d): %w", target, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	return &wsSession{conn: conn}, nil
}

// WebsocketURL converts a backend address into a websocket URL.
func WebsocketURL(address string) (string, error) {
	u, err := url.Parse(address)
	if err != nil {
		return "", fmt.Errorf("invalid backend address %q: %w", address, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid backend address %q: unsupported scheme %q", address, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid backend address %q: missing host", address)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultPath
	}
	return u.String(), nil
}

type wsSession struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (s *wsSession) Send(ctx context.Context, env Envelope) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode %s envelope: %w", env.Type, err)
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *wsSession) Receive(ctx context.Context) (Envelope, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_, data, err := s.conn.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Envelope{}, ctxErr
		}
		return Envelope{}, err
	}
	return DecodeEnvelope(data)
}

func (s *wsSession) Close() error {
	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()
	return s.conn.Close()
}
