// Package endpoint implements the transport's state machine: it owns
// the UDP socket, the connection table, the pending-ack table, and
// the receive/dispatch and retransmit background loops.
package endpoint

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"rudp/config"
	"rudp/conn"
	"rudp/idgen"
	"rudp/metrics"
	"rudp/pkg/logger"
	"rudp/wire"
	"rudp/xerrors"
)

// Endpoint owns a UDP socket, a connection table, and the pending-ack
// table, and drives the receive/dispatch and retransmit background
// loops. The zero value is not usable; construct with Bind.
type Endpoint struct {
	cfg  config.Config
	sock *net.UDPConn

	metrics *metrics.Set

	running atomic.Bool
	wg      sync.WaitGroup
	stopCh  chan struct{}
	stopOnce sync.Once

	connMu sync.RWMutex
	conns  map[uint32]*conn.Connection

	pending *conn.PendingAckTable

	newConnMu sync.Mutex
	newConns  []*conn.Connection

	// dropFilter, when set, is consulted by writeTo before every
	// outbound datagram; returning true discards it before it reaches
	// the socket. nil means nothing is dropped. Unexported: only
	// package-internal tests use it to simulate loss deterministically.
	dropFilter func(addr *net.UDPAddr, p wire.Packet) bool
}

// Bind opens a UDP socket on cfg.Address and starts the endpoint's
// two background loops. The returned Endpoint must eventually be
// stopped with Stop.
func Bind(cfg config.Config) (*Endpoint, error) {
	addr, err := net.ResolveUDPAddr("udp", cfg.Address)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrBindFailure, err.Error())
	}

	sock, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrBindFailure, err.Error())
	}

	e := &Endpoint{
		cfg:     cfg,
		sock:    sock,
		metrics: metrics.NewSet(cfg.Registry),
		stopCh:  make(chan struct{}),
		conns:   make(map[uint32]*conn.Connection),
		pending: conn.NewPendingAckTable(),
	}
	e.running.Store(true)

	logger.Infof("endpoint bound on %s", sock.LocalAddr())

	e.wg.Add(2)
	go func() {
		defer e.wg.Done()
		e.receiveLoop()
	}()
	go func() {
		defer e.wg.Done()
		e.retransmitLoop()
	}()

	return e, nil
}

// LocalAddr returns the address the underlying UDP socket is bound
// to, useful when Bind was called with a ":0" ephemeral port.
func (e *Endpoint) LocalAddr() net.Addr {
	return e.sock.LocalAddr()
}

// Connect allocates a fresh connection id, registers a Connecting
// connection, and sends a Connect packet requesting an Ack. The
// handshake's outcome is observable via the returned Connection's
// State(): Connected on success, Disconnected if the pending-ack
// budget is exhausted first.
func (e *Endpoint) Connect(remoteAddr string) (*conn.Connection, error) {
	addr, err := net.ResolveUDPAddr("udp", remoteAddr)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrBindFailure, err.Error())
	}

	id := idgen.ConnectionID()
	c := conn.New(id, addr, conn.StateConnecting, e.cfg.MaxPacketBacklog)

	e.connMu.Lock()
	e.conns[id] = c
	e.connMu.Unlock()
	e.metrics.ConnectionsActive.Inc()

	p := wire.NewPacket(wire.MethodConnect, id, idgen.PacketID(), true, nil)
	if _, err := e.Send(p); err != nil {
		return c, err
	}
	return c, nil
}

// Disconnect sends a best-effort Disconnect packet (no ack required),
// removes the connection from the table, and marks it Disconnected.
// Idempotent: calling it again for an id no longer in the table is a
// no-op.
func (e *Endpoint) Disconnect(connectionID uint32) {
	e.connMu.Lock()
	c, ok := e.conns[connectionID]
	if ok {
		delete(e.conns, connectionID)
	}
	e.connMu.Unlock()

	if !ok {
		return
	}
	e.metrics.ConnectionsActive.Dec()

	p := wire.NewPacket(wire.MethodDisconnect, connectionID, idgen.PacketID(), false, nil)
	e.writeTo(c.Addr, p)
	c.SetState(conn.StateDisconnected)
}

// Send transmits p to the connection's registered address. If
// AckRequested is set and no pending-ack record exists yet for
// p.Header.PacketID, one is created so the retransmit loop will
// retry it. Returns the number of bytes written to the socket.
func (e *Endpoint) Send(p wire.Packet) (int, error) {
	e.connMu.RLock()
	c, ok := e.conns[p.Header.ConnectionID]
	e.connMu.RUnlock()
	if !ok {
		return 0, xerrors.Wrapf(xerrors.ErrUnknownConnection, "connection %d", p.Header.ConnectionID)
	}

	// Pings are tracked in the pending-ack table purely to correlate
	// the matching PingResponse and compute a round-trip estimate, even
	// though they don't request the generic Ack (MethodPing is sent
	// with AckRequested=false so the responder's PingResponse is the
	// only reply, not also a generic Ack racing it for the same
	// packet_id).
	if p.Header.AckRequested || p.Header.Method == wire.MethodPing {
		if e.pending.InsertIfAbsent(p, nowFunc()) {
			e.metrics.PendingAcks.Inc()
		}
	}

	return e.writeTo(c.Addr, p)
}

// DrainNewConnections returns every Connection first observed (via an
// inbound Connect packet) since the previous call, and clears the
// list. This is how a server discovers inbound peers.
func (e *Endpoint) DrainNewConnections() []*conn.Connection {
	e.newConnMu.Lock()
	defer e.newConnMu.Unlock()
	if len(e.newConns) == 0 {
		return nil
	}
	out := e.newConns
	e.newConns = nil
	return out
}

// Stop transitions the endpoint to shutdown: it marks every
// connection Disconnected, stops accepting new work, closes the
// socket, and waits for both background loops to exit. Idempotent.
func (e *Endpoint) Stop() {
	e.stopOnce.Do(func() {
		e.running.Store(false)
		close(e.stopCh)

		e.connMu.Lock()
		for id, c := range e.conns {
			c.SetState(conn.StateDisconnected)
			delete(e.conns, id)
			e.metrics.ConnectionsActive.Dec()
		}
		e.connMu.Unlock()

		_ = e.sock.Close()
		e.wg.Wait()
		logger.Infof("endpoint stopped")
	})
}

func (e *Endpoint) writeTo(addr *net.UDPAddr, p wire.Packet) (int, error) {
	if e.dropFilter != nil && e.dropFilter(addr, p) {
		return len(p.Payload), nil
	}

	b, err := wire.Encode(p)
	if err != nil {
		return 0, xerrors.Wrap(xerrors.ErrMalformedPacket, err.Error())
	}

	n, err := e.sock.WriteToUDP(b, addr)
	if err != nil {
		return n, xerrors.Wrap(xerrors.ErrTransportFailure, err.Error())
	}

	e.metrics.PacketsSent.WithLabelValues(p.Header.Method.String()).Inc()
	return n, nil
}

// nowFunc is indirected only so tests that need deterministic timing
// could swap it; production code always uses wall-clock time.
var nowFunc = time.Now

func (e *Endpoint) addConnection(c *conn.Connection) {
	e.connMu.Lock()
	e.conns[c.ID] = c
	e.connMu.Unlock()
	e.metrics.ConnectionsActive.Inc()

	e.newConnMu.Lock()
	e.newConns = append(e.newConns, c)
	e.newConnMu.Unlock()
}

func (e *Endpoint) removeConnection(id uint32) {
	e.connMu.Lock()
	_, existed := e.conns[id]
	delete(e.conns, id)
	e.connMu.Unlock()
	if existed {
		e.metrics.ConnectionsActive.Dec()
	}
}

func (e *Endpoint) lookupConnection(id uint32) (*conn.Connection, bool) {
	e.connMu.RLock()
	defer e.connMu.RUnlock()
	c, ok := e.conns[id]
	return c, ok
}
