package endpoint

import (
	"net"
	"time"

	"rudp/conn"
	"rudp/idgen"
	"rudp/metrics"
	"rudp/pkg/logger"
	"rudp/wire"
	"rudp/xerrors"
)

// receiveLoop reads one datagram per iteration, bounded by
// cfg.BufferSize, and dispatches it. Decode failures and socket read
// timeouts are not fatal: the loop must keep going so it can observe
// the running flag at the next ReadTimeout boundary.
func (e *Endpoint) receiveLoop() {
	buf := make([]byte, e.cfg.BufferSize)

	for e.running.Load() {
		if err := e.sock.SetReadDeadline(time.Now().Add(e.cfg.ReadTimeout)); err != nil {
			logger.Warnf("receive loop: set read deadline: %v", err)
		}

		n, addr, err := e.sock.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if !e.running.Load() {
				return
			}
			logger.Debugf("receive loop: read error: %v", err)
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		p, err := wire.Decode(data)
		if err != nil {
			e.metrics.PacketsDropped.WithLabelValues(metrics.ReasonMalformed).Inc()
			logger.Debugf("receive loop: malformed packet from %s: %v", addr, err)
			continue
		}

		e.metrics.PacketsReceived.WithLabelValues(p.Header.Method.String()).Inc()
		e.dispatch(p, addr)
	}
}

// dispatch implements the receive loop's packet-handling rules:
// create-on-absent-Connect, immediate Ack synthesis, then the
// per-method switch.
func (e *Endpoint) dispatch(p wire.Packet, addr *net.UDPAddr) {
	c, existed := e.lookupConnection(p.Header.ConnectionID)
	if !existed {
		if p.Header.Method != wire.MethodConnect {
			e.metrics.PacketsDropped.WithLabelValues(metrics.ReasonUnknownConnection).Inc()
			return
		}
		c = conn.New(p.Header.ConnectionID, addr, conn.StateConnected, e.cfg.MaxPacketBacklog)
		e.addConnection(c)
		logger.WithFields(logger.Fields{"connection_id": c.ID, "addr": addr}).Info("inbound connection accepted")
	}

	if p.Header.AckRequested {
		ack := wire.NewPacket(wire.MethodAck, p.Header.ConnectionID, idgen.PacketID(), false, wire.EncodeAckPayload(p.Header.PacketID))
		e.writeTo(addr, ack)
	}

	switch p.Header.Method {
	case wire.MethodAck:
		e.handleAck(p)
	case wire.MethodConnect:
		// Already handled above; never enqueued to inbound.
	case wire.MethodDisconnect:
		c.SetState(conn.StateDisconnected)
		e.removeConnection(p.Header.ConnectionID)
	case wire.MethodPing:
		e.pushToConnection(c, p)
		// Echo the same packet_id back so the initiator's pending-ack
		// record (inserted in Send, keyed by that id) resolves this
		// PingResponse to the Ping that started the round trip.
		resp := wire.NewPacket(wire.MethodPingResponse, p.Header.ConnectionID, p.Header.PacketID, false, p.Payload)
		e.writeTo(addr, resp)
	case wire.MethodPingResponse:
		if rec, ok := e.pending.Remove(p.Header.PacketID); ok {
			e.metrics.PendingAcks.Dec()
			c.SetPing(time.Since(rec.FirstSentAt))
		}
		e.pushToConnection(c, p)
	default:
		// Data, DataSeq, AsymmKey, SymmKey: delegate to the
		// connection's dedup queue. This module does not interpret
		// key-exchange payloads; AsymmKey/SymmKey are a wire-compatible
		// extension point for a secure-session layer built on top.
		e.pushToConnection(c, p)
	}
}

func (e *Endpoint) handleAck(p wire.Packet) {
	ackedID, err := wire.DecodeAckPayload(p.Payload)
	if err != nil {
		e.metrics.PacketsDropped.WithLabelValues(metrics.ReasonMalformed).Inc()
		return
	}

	rec, ok := e.pending.Remove(ackedID)
	if !ok {
		return
	}
	e.metrics.PendingAcks.Dec()

	if rec.Packet.Header.Method == wire.MethodConnect {
		if c, ok := e.lookupConnection(p.Header.ConnectionID); ok {
			c.SetState(conn.StateConnected)
		}
	}
}

func (e *Endpoint) pushToConnection(c *conn.Connection, p wire.Packet) {
	dropped, dedup := c.Push(p)
	if !dropped {
		return
	}
	if dedup {
		e.metrics.PacketsDropped.WithLabelValues(metrics.ReasonDedup).Inc()
		return
	}
	e.metrics.PacketsDropped.WithLabelValues(metrics.ReasonBacklogFull).Inc()
	err := xerrors.Wrapf(xerrors.ErrBacklogFull, "connection %d", c.ID)
	logger.Debugf("%v", err)
}
