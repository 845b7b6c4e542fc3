// Package idgen generates the 32-bit random identifiers the wire
// format uses for connection_id and packet_id, plus the
// little-endian byte helpers the codec and the Ack payload share.
package idgen

import (
	"encoding/binary"
	"math/rand"
)

// ConnectionID returns a fresh random connection identifier, chosen
// by whichever side initiates a connection.
func ConnectionID() uint32 {
	return rand.Uint32()
}

// PacketID returns a fresh random packet identifier, unique within a
// connection's current journal until the next drain.
func PacketID() uint32 {
	return rand.Uint32()
}

// PutUint32 encodes v as 4 little-endian bytes.
func PutUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// Uint32 decodes 4 little-endian bytes into a uint32. The caller must
// ensure len(b) >= 4.
func Uint32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}
