package codec

// ClientDisconnected announces that a client's TCP session ended before
// it sent an EOF for every dataset — every stateful stage drops that
// client's state on receipt instead of waiting for a ring token that
// will never complete (common/monitorable.py).
type ClientDisconnected struct {
	Base
}

func (ClientDisconnected) PacketType() PacketType { return PacketClientDisconnected }

func (c ClientDisconnected) encode() []byte {
	out := encodeTag(PacketClientDisconnected)
	return append(out, c.Base.encode()...)
}

func decodeClientDisconnectedBody(payload []byte, offset int) (ClientDisconnected, error) {
	base, _, err := decodeBase(payload, offset)
	if err != nil {
		return ClientDisconnected{}, err
	}
	return ClientDisconnected{Base: base}, nil
}
