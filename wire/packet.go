// Package wire defines the on-wire packet envelope and its codec.
package wire

// Method is the wire-stable packet method enumeration. Unknown values
// are decode errors.
type Method uint8

const (
	MethodConnect Method = iota
	MethodDisconnect
	MethodAck
	MethodAsymmKey
	MethodSymmKey
	MethodData
	MethodDataSeq
	MethodPing
	MethodPingResponse
)

func (m Method) String() string {
	switch m {
	case MethodConnect:
		return "Connect"
	case MethodDisconnect:
		return "Disconnect"
	case MethodAck:
		return "Ack"
	case MethodAsymmKey:
		return "AsymmKey"
	case MethodSymmKey:
		return "SymmKey"
	case MethodData:
		return "Data"
	case MethodDataSeq:
		return "DataSeq"
	case MethodPing:
		return "Ping"
	case MethodPingResponse:
		return "PingResponse"
	default:
		return "Unknown"
	}
}

// IsValid reports whether m is one of the nine stable wire values.
func (m Method) IsValid() bool {
	return m <= MethodPingResponse
}

// Encoding describes how the payload bytes are compressed, if at all.
// This module decodes the envelope around any of these values but
// only ever produces EncodingRaw itself; decompressing Deflate/LZO
// payloads is left to the application that reads Header.Encoding.
type Encoding uint8

const (
	EncodingRaw Encoding = iota
	EncodingDeflate
	EncodingLZO
)

// Crypto describes what, if any, session cryptography was applied to
// the payload before it was handed to the codec. This module does not
// apply or interpret cryptography itself; the field exists purely as
// a wire-compatible extension point for a secure-session layer built
// on top.
type Crypto uint8

const (
	CryptoNone Crypto = iota
	CryptoAsymmetric
	CryptoSymmetric
)

// Version is the three-part semantic version carried verbatim on
// every packet. The codec copies these bytes without interpreting
// them; version compatibility is the dispatcher's concern.
type Version struct {
	Major uint8
	Minor uint8
	Patch uint8
}

// CurrentVersion is the version this module stamps onto packets it
// originates.
var CurrentVersion = Version{Major: 1, Minor: 0, Patch: 0}

// Header is the fixed-width packet header carried on every datagram.
// SequenceLen/SequenceInd are only meaningful (and only present on
// the wire) when Method == MethodDataSeq.
type Header struct {
	Version       Version
	Encoding      Encoding
	Crypto        Crypto
	Method        Method
	ConnectionID  uint32
	PacketID      uint32
	AckRequested  bool
	SequenceLen   uint32
	SequenceInd   uint32
}

// Packet is a decoded header paired with its opaque payload. For
// Method == MethodAck, Payload is exactly the four little-endian
// bytes of the acknowledged packet id.
type Packet struct {
	Header  Header
	Payload []byte
}

// NewPacket builds a packet with CurrentVersion and EncodingRaw/
// CryptoNone, the shape nearly every call site needs.
func NewPacket(method Method, connectionID, packetID uint32, ackRequested bool, payload []byte) Packet {
	return Packet{
		Header: Header{
			Version:      CurrentVersion,
			Encoding:     EncodingRaw,
			Crypto:       CryptoNone,
			Method:       method,
			ConnectionID: connectionID,
			PacketID:     packetID,
			AckRequested: ackRequested,
		},
		Payload: payload,
	}
}
