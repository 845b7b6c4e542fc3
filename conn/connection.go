// Package conn holds the per-peer Connection object and the
// pending-ack bookkeeping table the endpoint's retransmit loop walks.
package conn

import (
	"net"
	"sync"
	"time"

	"rudp/wire"
)

// State is a Connection's position in the handshake state machine:
// Init -> Connecting -> Connected -> Disconnected.
type State int

const (
	StateInit State = iota
	StateConnecting
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// Connection is per-peer state: identifier, remote address, state
// flag, a bounded dedup journal, and an inbound queue the application
// drains. The inbound queue and journal are internally serialised;
// State is swapped atomically under the same lock so readers never
// observe a torn view of "am I allowed to enqueue right now".
type Connection struct {
	ID      uint32
	Addr    *net.UDPAddr

	mu           sync.Mutex
	state        State
	journal      map[uint32]struct{}
	inbound      []wire.Packet
	maxBacklog   int
	ping         time.Duration
	hasPing      bool
}

// New creates a Connection in the given initial state with an empty
// journal and inbound queue, bounded to maxBacklog entries.
func New(id uint32, addr *net.UDPAddr, initial State, maxBacklog int) *Connection {
	return &Connection{
		ID:         id,
		Addr:       addr,
		state:      initial,
		journal:    make(map[uint32]struct{}),
		maxBacklog: maxBacklog,
	}
}

// Push appends a data-bearing packet to the inbound queue unless its
// PacketID was already seen since the last Drain (dedup), the
// connection is Disconnected, or the queue is already at maxBacklog
// (reported back to the caller so it can increment the BacklogFull
// metric and decide whether to log).
func (c *Connection) Push(p wire.Packet) (dropped bool, dropReasonDedup bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateDisconnected {
		return true, false
	}
	if _, seen := c.journal[p.Header.PacketID]; seen {
		return true, true
	}
	if len(c.inbound) >= c.maxBacklog {
		return true, false
	}

	c.journal[p.Header.PacketID] = struct{}{}
	c.inbound = append(c.inbound, p)
	return false, false
}

// Drain is a snapshot-and-clear retrieval: it returns every packet
// queued since the last Drain and empties both the inbound queue and
// the dedup journal. Clearing the journal on drain means a very late
// retransmit that arrives after a drain can be delivered a second time
// across the drain boundary; an accepted tradeoff since the journal's
// only job is suppressing duplicates within one drain window.
func (c *Connection) Drain() []wire.Packet {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.inbound) == 0 {
		return nil
	}
	out := c.inbound
	c.inbound = nil
	c.journal = make(map[uint32]struct{})
	return out
}

// SetState transitions the connection's handshake state.
func (c *Connection) SetState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// State returns the connection's current handshake state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetPing records a fresh round-trip estimate, most recently computed
// from a Ping/PingResponse round trip.
func (c *Connection) SetPing(d time.Duration) {
	c.mu.Lock()
	c.ping = d
	c.hasPing = true
	c.mu.Unlock()
}

// Ping returns the most recent round-trip estimate, if any has been
// recorded yet.
func (c *Connection) Ping() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ping, c.hasPing
}
