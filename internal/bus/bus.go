// Package bus implements the same-origin replication bus: every action a
// client applies as the result of a local command is published verbatim to
// the other connected clients. The bus carries serialized actions only,
// never state snapshots, so a client that was disconnected during an
// update permanently misses it unless it later performs a range reload.
//
// Delivery guarantees: at-most-once (bounded per-receiver buffers, drop on
// overflow), FIFO per sender, unordered across senders. Echo prevention is
// structural - Publish fans out to every connection except the sender, and
// inbound deliveries carry no publish capability.
package bus

import (
	"sync"

	"github.com/guardianhq/guardian/internal/state"
)

// DefaultBufferSize bounds each connection's inbound delivery buffer.
// A receiver that falls this far behind starts losing messages, which the
// protocol tolerates (best-effort, no exactly-once guarantee).
const DefaultBufferSize = 256

// Envelope is the typed wrapper the bus carries: the action payload plus
// the sender's origin label and per-sender sequence number. Seq is strictly
// increasing per origin, which makes reordering within one sender visible
// to tests and debugging.
type Envelope struct {
	Origin string       `json:"origin"`
	Seq    int64        `json:"seq"`
	Action state.Action `json:"action"`
}

// Bus is the in-process broadcast hub. One Bus models one browser origin;
// each open client joins it with its own connection.
type Bus struct {
	mu      sync.Mutex
	conns   map[string]*Conn
	nextID  int
	dropped int64
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{conns: make(map[string]*Conn)}
}

// Join connects a client under the given origin label and returns its
// connection. Origin labels must be unique per bus; joining with a label
// already in use replaces the prior connection's routing (the old
// connection stops receiving).
func (b *Bus) Join(origin string) *Conn {
	c := &Conn{
		bus:        b,
		origin:     origin,
		deliveries: make(chan Envelope, DefaultBufferSize),
	}
	b.mu.Lock()
	b.conns[origin] = c
	b.mu.Unlock()
	return c
}

// Dropped reports how many envelopes were discarded because a receiver's
// buffer was full.
func (b *Bus) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// publish fans an envelope out to every connection except the sender.
// Holding the bus mutex across the fan-out keeps one sender's publications
// FIFO relative to each other at every receiver.
func (b *Bus) publish(from *Conn, env Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for origin, c := range b.conns {
		if origin == from.origin {
			continue
		}
		select {
		case c.deliveries <- env:
		default:
			b.dropped++
		}
	}
}

// leave disconnects a connection and closes its delivery channel.
func (b *Bus) leave(c *Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conns[c.origin] == c {
		delete(b.conns, c.origin)
	}
	close(c.deliveries)
}

// Conn is one client's handle on the bus.
type Conn struct {
	bus        *Bus
	origin     string
	seq        int64
	seqMu      sync.Mutex
	deliveries chan Envelope
	closeOnce  sync.Once
}

// Origin returns the connection's origin label.
func (c *Conn) Origin() string { return c.origin }

// Publish broadcasts a locally applied action to every other connection.
// It never delivers back to the sender.
func (c *Conn) Publish(a state.Action) {
	c.seqMu.Lock()
	c.seq++
	env := Envelope{Origin: c.origin, Seq: c.seq, Action: a}
	c.bus.publish(c, env)
	c.seqMu.Unlock()
}

// Deliveries exposes inbound envelopes from peers. The channel closes when
// the connection leaves the bus. Envelopes received here must be applied
// through the transition function and never re-published.
func (c *Conn) Deliveries() <-chan Envelope {
	return c.deliveries
}

// Close leaves the bus. Safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() { c.bus.leave(c) })
}
