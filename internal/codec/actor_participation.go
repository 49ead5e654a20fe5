package codec

// ActorParticipation is the actor-participation Aggregator's answer for
// one actor: their appearance count across the client's filtered movie
// set. One message is emitted per actor in the client's top-N
// (messages/actor_participation.py, as actually constructed in
// top_actors_participation_calculator.py with a client/message id).
type ActorParticipation struct {
	Base
	Actor       string
	Participation int64
}

func (ActorParticipation) PacketType() PacketType { return PacketActorParticipation }

func (a ActorParticipation) encode() []byte {
	out := encodeTag(PacketActorParticipation)
	out = append(out, a.Base.encode()...)
	out = append(out, encodeString(a.Actor)...)
	return append(out, encodeInt(a.Participation, true)...)
}

func decodeActorParticipationBody(payload []byte, offset int) (ActorParticipation, error) {
	base, offset, err := decodeBase(payload, offset)
	if err != nil {
		return ActorParticipation{}, err
	}
	actor, offset, err := decodeString("actor", offset, payload)
	if err != nil {
		return ActorParticipation{}, err
	}
	participation, _, _, err := decodeInt(offset, payload)
	if err != nil {
		return ActorParticipation{}, err
	}
	return ActorParticipation{Base: base, Actor: actor, Participation: participation}, nil
}
