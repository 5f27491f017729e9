package driver

import (
	"sync"
	"sync/atomic"
)

// rpcResult is what a waiter receives: either a decoded server frame or
// a local failure such as connection teardown.
type rpcResult struct {
	in  inbound
	err error
}

// correlator matches server replies to the callers waiting for them.
// Request ids are monotonic and never reused for the lifetime of a
// connection. Every waiter channel has capacity one and its map entry
// is removed before the result is sent, so each waiter is resolved at
// most once and resolution never blocks the demultiplexer.
type correlator struct {
	next    atomic.Uint64
	mu      sync.Mutex
	waiters map[uint64]chan rpcResult
	closed  bool
}

func newCorrelator() *correlator {
	return &correlator{waiters: make(map[uint64]chan rpcResult)}
}

// register allocates a request id and its reply channel.
func (c *correlator) register() (uint64, chan rpcResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, nil, ErrClosed
	}
	id := c.next.Add(1)
	ch := make(chan rpcResult, 1)
	c.waiters[id] = ch
	return id, ch, nil
}

// resolve delivers a reply to its waiter. It reports false when no
// waiter exists, which covers replies that arrive after the caller
// timed out and ids the client never issued.
func (c *correlator) resolve(id uint64, in inbound) bool {
	c.mu.Lock()
	ch, ok := c.waiters[id]
	if ok {
		delete(c.waiters, id)
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	ch <- rpcResult{in: in}
	return true
}

// drop abandons a waiter whose caller gave up. A reply arriving later
// finds no entry and is discarded.
func (c *correlator) drop(id uint64) {
	c.mu.Lock()
	delete(c.waiters, id)
	c.mu.Unlock()
}

// failAll resolves every in-flight waiter with err and refuses new
// registrations. Called once, when the connection tears down.
func (c *correlator) failAll(err error) {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = make(map[uint64]chan rpcResult)
	c.closed = true
	c.mu.Unlock()
	for _, ch := range waiters {
		ch <- rpcResult{err: err}
	}
}

// pendingCount reports how many callers are awaiting replies.
func (c *correlator) pendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}
