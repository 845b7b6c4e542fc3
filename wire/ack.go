package wire

import (
	"rudp/idgen"
	"rudp/xerrors"
)

// EncodeAckPayload produces the four little-endian bytes an Ack
// packet's Payload must contain.
func EncodeAckPayload(packetID uint32) []byte {
	return idgen.PutUint32(packetID)
}

// DecodeAckPayload extracts the acknowledged packet id from an Ack
// packet's Payload.
func DecodeAckPayload(payload []byte) (uint32, error) {
	if len(payload) != 4 {
		return 0, xerrors.Wrapf(xerrors.ErrMalformedPacket, "ack payload length %d, want 4", len(payload))
	}
	return idgen.Uint32(payload), nil
}
