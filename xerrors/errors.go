// Package xerrors defines the sentinel error kinds the transport can
// surface across its public API. Callers should compare against these
// with errors.Is; every wrapped instance is produced with
// github.com/pkg/errors so the sentinel survives in the cause chain.
package xerrors

import "github.com/pkg/errors"

var (
	// ErrBindFailure means the local address could not be bound.
	ErrBindFailure = errors.New("rudp: bind failure")

	// ErrMalformedPacket means the wire codec rejected a datagram.
	ErrMalformedPacket = errors.New("rudp: malformed packet")

	// ErrUnknownConnection means a send targeted a connection id not
	// present in the endpoint's connection table.
	ErrUnknownConnection = errors.New("rudp: unknown connection")

	// ErrTransportFailure means the OS socket send returned an error.
	ErrTransportFailure = errors.New("rudp: transport failure")

	// ErrHandshakeTimeout means a Connect packet's pending-ack budget
	// was exhausted before an Ack arrived. Never returned
	// synchronously; observable only via connection state.
	ErrHandshakeTimeout = errors.New("rudp: handshake timeout")

	// ErrBacklogFull means a connection's inbound queue was at
	// capacity when a packet arrived for it; the packet was dropped.
	ErrBacklogFull = errors.New("rudp: backlog full")
)
