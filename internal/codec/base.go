package codec

// Base carries the two fields present on every record: a deterministic or
// freshly-minted message_id, and the client_id it belongs to. Every batch
// body starts with these two length-prefixed strings before its
// type-specific payload (spec.md §6 "Wire — bus").
type Base struct {
	MessageID string
	ClientID  string
}

func (b Base) GetMessageID() string { return b.MessageID }
func (b Base) GetClientID() string  { return b.ClientID }

func (b Base) encode() []byte {
	return append(encodeString(b.MessageID), encodeString(b.ClientID)...)
}

func decodeBase(payload []byte, offset int) (Base, int, error) {
	messageID, offset, err := decodeString("message_id", offset, payload)
	if err != nil {
		return Base{}, offset, err
	}
	clientID, offset, err := decodeString("client_id", offset, payload)
	if err != nil {
		return Base{}, offset, err
	}
	return Base{MessageID: messageID, ClientID: clientID}, offset, nil
}
