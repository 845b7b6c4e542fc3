package endpoint

import (
	"context"
	"time"

	"rudp/conn"
	"rudp/looputil"
	"rudp/pkg/logger"
	"rudp/wire"
	"rudp/xerrors"
)

// retransmitLoop runs at 1/AckLoopInterval Hz for the endpoint's
// lifetime. Each tick it plans a sweep of the pending-ack table,
// retransmits every record due for a retry, and applies the outcome.
// Records that exhausted their attempt budget are reported back; a
// Connect record among them means the handshake timed out and the
// originating connection is torn down.
func (e *Endpoint) retransmitLoop() {
	hz := 1.0
	if e.cfg.AckLoopInterval > 0 {
		hz = float64(time.Second) / float64(e.cfg.AckLoopInterval)
	}

	looputil.Run(context.Background(), e.stopCh, hz, func(_ context.Context, _ time.Duration) {
		e.retransmitTick()
	})
}

func (e *Endpoint) retransmitTick() {
	now := nowFunc()
	plan := e.pending.PlanSweep(now, e.cfg.AckInterval, e.cfg.MaxAckAttempts)
	if len(plan) == 0 {
		return
	}

	// Only items that were actually handed to the socket (or that were
	// already exhausted, which Apply removes regardless) go to Apply.
	// A record whose resend failed locally - no connection in the
	// table, or a socket write error - must not have its attempt count
	// burned: no datagram left the host, so the next tick should retry
	// it exactly as before, not one attempt closer to giving up.
	var toApply []conn.SweepPlan
	for _, item := range plan {
		if item.Exhausted {
			toApply = append(toApply, item)
			continue
		}
		c, ok := e.lookupConnection(item.Packet.Header.ConnectionID)
		if !ok {
			continue
		}
		if _, err := e.writeTo(c.Addr, item.Packet); err != nil {
			logger.Debugf("retransmit loop: resend packet_id=%d: %v", item.PacketID, err)
			continue
		}
		e.metrics.Retransmits.Inc()
		toApply = append(toApply, item)
	}

	exhausted := e.pending.Apply(toApply, now)
	for _, rec := range exhausted {
		e.metrics.PendingAcks.Dec()
		e.onExhausted(rec)
	}
}

// onExhausted handles a pending-ack record whose retry budget ran out.
// Only a Connect record has further consequences: the handshake never
// completed, so the connection is torn down and counted as a
// handshake timeout. Everything else (Data, Ping, ...) is simply
// dropped silently.
func (e *Endpoint) onExhausted(rec conn.PendingAckRecord) {
	if rec.Packet.Header.Method != wire.MethodConnect {
		return
	}

	id := rec.Packet.Header.ConnectionID
	c, ok := e.lookupConnection(id)
	if !ok {
		return
	}
	c.SetState(conn.StateDisconnected)
	e.removeConnection(id)
	e.metrics.HandshakeTimeouts.Inc()

	err := xerrors.Wrapf(xerrors.ErrHandshakeTimeout, "connection %d", id)
	logger.WithFields(logger.Fields{"connection_id": id}).Warn(err)
}
