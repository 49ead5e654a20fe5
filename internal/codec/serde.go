package codec

import "fmt"

// Encode serializes any bus message to its wire form: a one-byte packet
// type tag followed by its length-prefixed, field-tagged body
// (packet_serde.py).
func Encode(msg Message) ([]byte, error) {
	switch m := msg.(type) {
	case MoviesBatch:
		return m.encode(), nil
	case RatingsBatch:
		return m.encode(), nil
	case CreditsBatch:
		return m.encode(), nil
	case MovieRatingsBatch:
		return m.encode(), nil
	case MovieCreditsBatch:
		return m.encode(), nil
	case AnalyzedMoviesBatch:
		return m.encode(), nil
	case InvestorCountry:
		return m.encode(), nil
	case ActorParticipation:
		return m.encode(), nil
	case AvgRateRevenueBudget:
		return m.encode(), nil
	case EOF:
		return m.encode(), nil
	case ClientDisconnected:
		return m.encode(), nil
	default:
		return nil, fmt.Errorf("codec: unsupported message type %T", msg)
	}
}

// Decode reads a packet type tag off the front of payload and dispatches
// to the matching body decoder (packet_deserializer.py).
func Decode(payload []byte) (Message, error) {
	if len(payload) < lengthPacketType {
		return nil, fmt.Errorf("codec: empty payload")
	}
	tag := PacketType(payload[0])
	offset := lengthPacketType
	switch tag {
	case PacketMoviesBatch:
		return decodeMoviesBatchBody(payload, offset)
	case PacketRatingsBatch:
		return decodeRatingsBatchBody(payload, offset)
	case PacketCreditsBatch:
		return decodeCreditsBatchBody(payload, offset)
	case PacketMovieRatingsBatch:
		return decodeMovieRatingsBatchBody(payload, offset)
	case PacketMovieCreditsBatch:
		return decodeMovieCreditsBatchBody(payload, offset)
	case PacketAnalyzedMoviesBatch:
		return decodeAnalyzedMoviesBatchBody(payload, offset)
	case PacketInvestorCountry:
		return decodeInvestorCountryBody(payload, offset)
	case PacketActorParticipation:
		return decodeActorParticipationBody(payload, offset)
	case PacketAvgRateRevenueBudget:
		return decodeAvgRateRevenueBudgetBody(payload, offset)
	case PacketEOF:
		return decodeEOFBody(payload, offset)
	case PacketClientDisconnected:
		return decodeClientDisconnectedBody(payload, offset)
	default:
		return nil, fmt.Errorf("codec: unknown packet type %d", tag)
	}
}
