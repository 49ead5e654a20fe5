// Package codec implements the record envelope and field encoding used on
// the message bus: a one-byte packet type tag followed by a
// length-prefixed, field-tagged body. The format is reproduced from
// _examples/original_source/messages/*.py so that byte layout, field
// ordering and child-id derivation stay interoperable with the reference
// implementation this system was distilled from. See spec.md §6 "Wire —
// bus" and SPEC_FULL.md §2 "Record Codec".
package codec

import "fmt"

// PacketType is the one-byte discriminant at the start of every bus
// message body.
type PacketType byte

const (
	PacketMoviesBatch          PacketType = 1
	PacketEOF                  PacketType = 2
	PacketInvestorCountry      PacketType = 3
	PacketRatingsBatch         PacketType = 4
	PacketMovieRatingsBatch    PacketType = 5
	PacketCreditsBatch         PacketType = 6
	PacketMovieCreditsBatch    PacketType = 7
	PacketActorParticipation  PacketType = 8
	PacketAnalyzedMoviesBatch  PacketType = 9
	PacketAvgRateRevenueBudget PacketType = 10
	PacketClientDisconnected   PacketType = 11
)

func (t PacketType) String() string {
	switch t {
	case PacketMoviesBatch:
		return "MoviesBatch"
	case PacketEOF:
		return "EOF"
	case PacketInvestorCountry:
		return "InvestorCountry"
	case PacketRatingsBatch:
		return "RatingsBatch"
	case PacketMovieRatingsBatch:
		return "MovieRatingsBatch"
	case PacketCreditsBatch:
		return "CreditsBatch"
	case PacketMovieCreditsBatch:
		return "MovieCreditsBatch"
	case PacketActorParticipation:
		return "ActorParticipation"
	case PacketAnalyzedMoviesBatch:
		return "AnalyzedMoviesBatch"
	case PacketAvgRateRevenueBudget:
		return "AvgRateRevenueBudget"
	case PacketClientDisconnected:
		return "ClientDisconnected"
	default:
		return fmt.Sprintf("Unknown(%d)", byte(t))
	}
}

// Message is implemented by every record that travels on the bus.
type Message interface {
	PacketType() PacketType
}

// ClientScoped is implemented by every message carrying a client_id.
type ClientScoped interface {
	Message
	GetClientID() string
}

// IDScoped is implemented by every message carrying both a message_id and
// a client_id — the fields every derived child record must propagate.
type IDScoped interface {
	ClientScoped
	GetMessageID() string
}
