// Package wire implements the client<->server TCP transport framing:
// a 3-byte big-endian length prefix around a UTF-8 payload, the literal
// string "EOF" as an end-of-dataset sentinel, and ';'-delimited batching
// of already CSV-encoded entity lines into one transport message
// (communication/communication.py).
package wire

import (
	"bufio"
	"encoding/binary"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

const (
	lengthPrefixBytes = 3
	maxMessageLength  = 1<<24 - 1

	// EOFSentinel is the literal payload a sender writes to announce it
	// has sent every line of the current dataset.
	EOFSentinel = "EOF"
)

// WriteMessage frames payload with its 3-byte big-endian length prefix
// and writes it to w.
func WriteMessage(w io.Writer, payload string) error {
	if len(payload) > maxMessageLength {
		return fmt.Errorf("wire: message too large: %d bytes", len(payload))
	}
	prefix := make([]byte, lengthPrefixBytes)
	putUint24(prefix, uint32(len(payload)))
	if _, err := w.Write(prefix); err != nil {
		return fmt.Errorf("wire: write length prefix: %w", err)
	}
	if _, err := io.WriteString(w, payload); err != nil {
		return fmt.Errorf("wire: write payload: %w", err)
	}
	return nil
}

// ReadMessage reads one length-prefixed payload from r.
func ReadMessage(r *bufio.Reader) (string, error) {
	prefix := make([]byte, lengthPrefixBytes)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return "", err
	}
	n := readUint24(prefix)
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("wire: read payload: %w", err)
	}
	return string(buf), nil
}

// IsEOF reports whether payload is the end-of-dataset sentinel rather
// than a batch of data lines.
func IsEOF(payload string) bool {
	return payload == EOFSentinel
}

// EncodeBatch packs already CSV-encoded entity lines into a single
// ';'-delimited transport payload, one field per line. A line is quoted
// only where encoding/csv requires it (a ';', a double quote, a line
// break or a leading space); commas alone do not cause quoting.
func EncodeBatch(lines []string) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	w.Comma = ';'
	if err := w.Write(lines); err != nil {
		return "", fmt.Errorf("wire: encode batch: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimSuffix(sb.String(), "\r\n"), nil
}

// DecodeBatch splits a ';'-delimited transport payload back into its
// individual CSV-encoded entity lines.
func DecodeBatch(payload string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(payload))
	r.Comma = ';'
	record, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("wire: decode batch: %w", err)
	}
	return record, nil
}

func putUint24(b []byte, v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	copy(b, buf[1:])
}

func readUint24(b []byte) uint32 {
	var buf [4]byte
	copy(buf[1:], b)
	return binary.BigEndian.Uint32(buf[:])
}
