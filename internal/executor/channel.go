package executor

import (
	"sync"
	"sync/atomic"
)

// ReceiveFunc consumes one chunk. A nil chunk marks the end of the stream.
// Returning false asks the channel to stop delivering.
type ReceiveFunc func(chunk []byte) bool

// Channel is one byte stream of a run instance.
type Channel struct {
	name string

	consumerMu sync.Mutex
	consumer   ReceiveFunc

	// mu guards closed against concurrent Write and Close.
	mu     sync.RWMutex
	closed bool
	queue  chan []byte

	abort   <-chan struct{}
	stopped atomic.Bool
	dropped atomic.Bool
	done    chan struct{}
}

func newChannel(name string, size int, abort <-chan struct{}) *Channel {
	if size <= 0 {
		size = DefaultQueueSize
	}
	c := &Channel{
		name:  name,
		queue: make(chan []byte, size),
		abort: abort,
		done:  make(chan struct{}),
	}
	go c.deliver()
	return c
}

// Name returns the channel name: out, err or exit.
func (c *Channel) Name() string { return c.name }

// OnReceive registers the consumer. Chunks produced before a consumer is
// registered are discarded.
func (c *Channel) OnReceive(fn ReceiveFunc) {
	c.consumerMu.Lock()
	c.consumer = fn
	c.consumerMu.Unlock()
}

// Stopped reports whether the consumer asked the channel to stop.
func (c *Channel) Stopped() bool { return c.stopped.Load() }

// Write enqueues a copy of p. It blocks while the queue is full and never
// fails; once the consumer has stopped or the instance was invalidated the
// data is discarded.
func (c *Channel) Write(p []byte) (int, error) {
	if len(p) == 0 || c.stopped.Load() || c.dropped.Load() {
		return len(p), nil
	}
	chunk := make([]byte, len(p))
	copy(chunk, p)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return len(p), nil
	}
	select {
	case c.queue <- chunk:
	case <-c.abort:
	}
	return len(p), nil
}

func (c *Channel) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.queue)
}

func (c *Channel) drop() {
	c.dropped.Store(true)
}

func (c *Channel) receiver() ReceiveFunc {
	c.consumerMu.Lock()
	defer c.consumerMu.Unlock()
	return c.consumer
}

func (c *Channel) deliver() {
	defer close(c.done)

	for chunk := range c.queue {
		if c.dropped.Load() || c.stopped.Load() {
			continue
		}
		fn := c.receiver()
		if fn == nil {
			continue
		}
		if !fn(chunk) {
			c.stopped.Store(true)
		}
	}

	if c.dropped.Load() || c.stopped.Load() {
		return
	}
	if fn := c.receiver(); fn != nil {
		fn(nil)
	}
}
