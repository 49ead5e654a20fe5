package codec

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"time"
)

const (
	lengthPacketType = 1
	lengthField       = 2
	dateLayout        = "2006-01-02"
)

// encodeTag writes the one-byte packet type discriminant.
func encodeTag(t PacketType) []byte {
	return []byte{byte(t)}
}

// encodeFieldBytes wraps raw bytes with their 2-byte big-endian length
// prefix, the base unit every field encoding builds on.
func encodeFieldBytes(b []byte) []byte {
	out := make([]byte, lengthField+len(b))
	binary.BigEndian.PutUint16(out, uint16(len(b)))
	copy(out[lengthField:], b)
	return out
}

func encodeString(s string) []byte {
	return encodeFieldBytes([]byte(s))
}

func encodeStringsIterable(values []string) []byte {
	var body []byte
	for _, v := range values {
		body = append(body, encodeString(v)...)
	}
	return encodeFieldBytes(body)
}

func encodeDate(t time.Time, present bool) []byte {
	if !present {
		return encodeString("")
	}
	return encodeString(t.Format(dateLayout))
}

func encodeInt(n int64, present bool) []byte {
	if !present {
		return encodeString("")
	}
	return encodeString(strconv.FormatInt(n, 10))
}

func encodeFloat(f float64, present bool) []byte {
	if !present {
		return encodeString("")
	}
	return encodeString(strconv.FormatFloat(f, 'f', -1, 64))
}

// readField reads the next length-prefixed field at offset, returning its
// raw bytes and the new offset.
func readField(payload []byte, offset int) ([]byte, int, error) {
	if offset+lengthField > len(payload) {
		return nil, 0, fmt.Errorf("codec: truncated field length at offset %d", offset)
	}
	n := int(binary.BigEndian.Uint16(payload[offset : offset+lengthField]))
	offset += lengthField
	if offset+n > len(payload) {
		return nil, 0, fmt.Errorf("codec: truncated field body at offset %d (want %d bytes)", offset, n)
	}
	return payload[offset : offset+n], offset + n, nil
}

func decodeString(field string, offset int, payload []byte) (string, int, error) {
	b, next, err := readField(payload, offset)
	if err != nil {
		return "", offset, err
	}
	return string(b), next, nil
}

func decodeStringsList(offset int, payload []byte) ([]string, int, error) {
	b, next, err := readField(payload, offset)
	if err != nil {
		return nil, offset, err
	}
	var out []string
	inner := 0
	for inner < len(b) {
		elem, nextInner, err := readField(b, inner)
		if err != nil {
			return nil, offset, err
		}
		out = append(out, string(elem))
		inner = nextInner
	}
	return out, next, nil
}

func decodeDate(offset int, payload []byte) (time.Time, bool, int, error) {
	s, next, err := readField(payload, offset)
	if err != nil {
		return time.Time{}, false, offset, err
	}
	if len(s) == 0 {
		return time.Time{}, false, next, nil
	}
	t, err := time.Parse(dateLayout, string(s))
	if err != nil {
		return time.Time{}, false, offset, fmt.Errorf("codec: invalid date %q: %w", s, err)
	}
	return t, true, next, nil
}

func decodeInt(offset int, payload []byte) (int64, bool, int, error) {
	s, next, err := readField(payload, offset)
	if err != nil {
		return 0, false, offset, err
	}
	if len(s) == 0 {
		return 0, false, next, nil
	}
	n, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		return 0, false, offset, fmt.Errorf("codec: invalid int %q: %w", s, err)
	}
	return n, true, next, nil
}

func decodeFloat(offset int, payload []byte) (float64, bool, int, error) {
	s, next, err := readField(payload, offset)
	if err != nil {
		return 0, false, offset, err
	}
	if len(s) == 0 {
		return 0, false, next, nil
	}
	f, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return 0, false, offset, fmt.Errorf("codec: invalid float %q: %w", s, err)
	}
	return f, true, next, nil
}
