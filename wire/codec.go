package wire

import (
	"rudp/xerrors"

	"github.com/vmihailenco/msgpack/v5"
)

// envelope is the self-describing on-wire shape the codec actually
// marshals. SequenceLen/SequenceInd are pointers so they are omitted
// from the encoded bytes unless Method == MethodDataSeq, matching the
// spec's "present iff method = DataSeq" rule without hand-rolling
// bit-level framing.
type envelope struct {
	Major        uint8   `msgpack:"ver_maj"`
	Minor        uint8   `msgpack:"ver_min"`
	Patch        uint8   `msgpack:"ver_pat"`
	Encoding     uint8   `msgpack:"enc"`
	Crypto       uint8   `msgpack:"crypt"`
	Method       uint8   `msgpack:"method"`
	ConnectionID uint32  `msgpack:"cid"`
	PacketID     uint32  `msgpack:"pid"`
	AckRequested bool    `msgpack:"ack"`
	SequenceLen  *uint32 `msgpack:"seq_len,omitempty"`
	SequenceInd  *uint32 `msgpack:"seq_ind,omitempty"`
	Payload      []byte  `msgpack:"payload"`
}

// Encode serialises a packet into its wire form. It rejects packets
// carrying an unknown method. For DataSeq packets it always writes
// both sequence fields (taken from the header, zero included), so it
// never produces a DataSeq envelope without them.
func Encode(p Packet) ([]byte, error) {
	if !p.Header.Method.IsValid() {
		return nil, xerrors.Wrapf(xerrors.ErrMalformedPacket, "unknown method %d", p.Header.Method)
	}

	env := envelope{
		Major:        p.Header.Version.Major,
		Minor:        p.Header.Version.Minor,
		Patch:        p.Header.Version.Patch,
		Encoding:     uint8(p.Header.Encoding),
		Crypto:       uint8(p.Header.Crypto),
		Method:       uint8(p.Header.Method),
		ConnectionID: p.Header.ConnectionID,
		PacketID:     p.Header.PacketID,
		AckRequested: p.Header.AckRequested,
		Payload:      p.Payload,
	}

	if p.Header.Method == MethodDataSeq {
		seqLen := p.Header.SequenceLen
		seqInd := p.Header.SequenceInd
		env.SequenceLen = &seqLen
		env.SequenceInd = &seqInd
	}

	b, err := msgpack.Marshal(&env)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrMalformedPacket, err.Error())
	}
	return b, nil
}

// Decode parses the wire form produced by Encode (or any conformant
// peer) back into a Packet, or fails with xerrors.ErrMalformedPacket
// wrapping the underlying cause: a truncated/corrupt envelope, an
// unknown method, or a DataSeq packet missing its sequence fields.
func Decode(data []byte) (Packet, error) {
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return Packet{}, xerrors.Wrap(xerrors.ErrMalformedPacket, err.Error())
	}

	method := Method(env.Method)
	if !method.IsValid() {
		return Packet{}, xerrors.Wrapf(xerrors.ErrMalformedPacket, "unknown method %d", env.Method)
	}

	if method == MethodDataSeq && (env.SequenceLen == nil || env.SequenceInd == nil) {
		return Packet{}, xerrors.Wrap(xerrors.ErrMalformedPacket, "DataSeq packet missing sequence fields")
	}

	p := Packet{
		Header: Header{
			Version:      Version{Major: env.Major, Minor: env.Minor, Patch: env.Patch},
			Encoding:     Encoding(env.Encoding),
			Crypto:       Crypto(env.Crypto),
			Method:       method,
			ConnectionID: env.ConnectionID,
			PacketID:     env.PacketID,
			AckRequested: env.AckRequested,
		},
		Payload: env.Payload,
	}
	if env.SequenceLen != nil {
		p.Header.SequenceLen = *env.SequenceLen
	}
	if env.SequenceInd != nil {
		p.Header.SequenceInd = *env.SequenceInd
	}
	return p, nil
}
