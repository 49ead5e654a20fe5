package codec

// CreditsBatch carries raw (movie_id, cast) rows straight from the
// credits dataset shard a client streamed in.
type CreditsBatch struct {
	Base
	Credits []Credit
}

func (CreditsBatch) PacketType() PacketType { return PacketCreditsBatch }

func (b CreditsBatch) encode() []byte {
	out := encodeTag(PacketCreditsBatch)
	out = append(out, b.Base.encode()...)
	var body []byte
	for _, c := range b.Credits {
		body = append(body, c.encode()...)
	}
	return append(out, encodeFieldBytes(body)...)
}

func decodeCreditsBatchBody(payload []byte, offset int) (CreditsBatch, error) {
	base, offset, err := decodeBase(payload, offset)
	if err != nil {
		return CreditsBatch{}, err
	}
	blob, _, err := readField(payload, offset)
	if err != nil {
		return CreditsBatch{}, err
	}
	var credits []Credit
	inner := 0
	for inner < len(blob) {
		c, next, err := decodeCredit(blob, inner)
		if err != nil {
			return CreditsBatch{}, err
		}
		credits = append(credits, c)
		inner = next
	}
	return CreditsBatch{Base: base, Credits: credits}, nil
}
