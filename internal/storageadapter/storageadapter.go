// Package storageadapter implements the crash-safe key-value persistence
// every stateful stage uses to survive a restart mid-dataset: an
// append-only log of individual mutations (so a torn write on crash
// loses at most its last record) plus whole-snapshot atomic replace for
// periodic compaction (storage_adapter/storage_adapter.py).
//
// Values cross the any boundary via encoding/gob, so callers must
// gob.Register any concrete type they store before using this package.
package storageadapter

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/distribudata/movie-pipeline/internal/obslog"
)

const lengthDataBytes = 3

// StorageAdapter persists per-client and per-shard state under a single
// directory, one file (or set of secondary-keyed files) per logical
// dataset a stage owns.
type StorageAdapter struct {
	storagePath string
	logger      *zap.Logger
}

// New creates storagePath (and any missing parents) and returns an
// adapter rooted there.
func New(storagePath string, logger *zap.Logger) (*StorageAdapter, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return nil, fmt.Errorf("storageadapter: create storage dir %s: %w", storagePath, err)
	}
	return &StorageAdapter{storagePath: storagePath, logger: logger}, nil
}

func (s *StorageAdapter) filePath(fileKey, secondaryFileKey string) string {
	name := fileKey
	if secondaryFileKey != "" {
		name = fileKey + secondaryFileKey
	}
	return filepath.Join(s.storagePath, name)
}

func (s *StorageAdapter) tempFilePath() string {
	return filepath.Join(s.storagePath, uuid.NewString())
}

// Delete removes the file backing fileKey (and secondaryFileKey, if
// given). A missing file is not an error — deleting state that was
// never flushed is routine on the EOF / ClientDisconnected path.
func (s *StorageAdapter) Delete(fileKey, secondaryFileKey string) error {
	path := s.filePath(fileKey, secondaryFileKey)
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		obslog.Action(s.logger, "delete_file_from_storage", err, zap.String("path", path))
		return err
	}
	obslog.Action(s.logger, "delete_file_from_storage", nil, zap.String("path", path))
	return nil
}

func encodeGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RegisterType makes a concrete type usable as a storage key or value.
// Call this once per type during package init before using an adapter.
func RegisterType(v any) {
	gob.Register(v)
}

func decodeGob(data []byte) (any, error) {
	var v any
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func encodeEntry(key any, value any, hasValue bool) ([]byte, error) {
	keyBytes, err := encodeGob(key)
	if err != nil {
		return nil, fmt.Errorf("storageadapter: encode key: %w", err)
	}
	out := make([]byte, 0, 1+4+len(keyBytes))
	out = appendUint8(out, boolByte(hasValue))
	out = appendUint32(out, uint32(len(keyBytes)))
	out = append(out, keyBytes...)
	if hasValue {
		valueBytes, err := encodeGob(value)
		if err != nil {
			return nil, fmt.Errorf("storageadapter: encode value: %w", err)
		}
		out = appendUint32(out, uint32(len(valueBytes)))
		out = append(out, valueBytes...)
	}
	return out, nil
}

// Append writes one key (set-membership record, value == nil) or one
// key/value pair to fileKey's append log. Each record is individually
// length-prefixed so a crash mid-write only corrupts its own tail, which
// loadKeyValuesFromFile detects and stops at.
func (s *StorageAdapter) Append(fileKey string, key any, value any, secondaryFileKey string) error {
	path := s.filePath(fileKey, secondaryFileKey)
	entry, err := encodeEntry(key, value, value != nil)
	if err != nil {
		obslog.Action(s.logger, "append_data_to_storage", err)
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		obslog.Action(s.logger, "append_data_to_storage", err, zap.String("path", path))
		return err
	}
	defer f.Close()

	prefix := make([]byte, lengthDataBytes)
	putUint24(prefix, uint32(len(entry)))
	if _, err := f.Write(prefix); err != nil {
		obslog.Action(s.logger, "append_data_to_storage", err, zap.String("path", path))
		return err
	}
	if _, err := f.Write(entry); err != nil {
		obslog.Action(s.logger, "append_data_to_storage", err, zap.String("path", path))
		return err
	}
	if err := f.Sync(); err != nil {
		obslog.Action(s.logger, "append_data_to_storage", err, zap.String("path", path))
		return err
	}
	return nil
}

// KeyValues is the reconstructed state of one append log: Values holds
// every key that arrived with a value, Keys holds every key that
// arrived alone (set membership only). A file mixes the two only if the
// caller mixed Append calls; callers normally pick one mode per file.
type KeyValues struct {
	Values map[any]any
	Keys   map[any]struct{}
}

func newKeyValues() KeyValues {
	return KeyValues{Values: map[any]any{}, Keys: map[any]struct{}{}}
}

func (s *StorageAdapter) loadKeyValuesFromFile(path string) (KeyValues, error) {
	kv := newKeyValues()
	data, err := os.ReadFile(path)
	if err != nil {
		return kv, err
	}
	offset := 0
	for offset < len(data) {
		if offset+lengthDataBytes > len(data) {
			obslog.Action(s.logger, "load_data_from_storage", fmt.Errorf("truncated length prefix"), zap.String("path", path))
			break
		}
		n := int(readUint24(data[offset : offset+lengthDataBytes]))
		offset += lengthDataBytes
		if offset+n > len(data) {
			obslog.Action(s.logger, "load_data_from_storage", fmt.Errorf("truncated record"), zap.String("path", path))
			break
		}
		entry := data[offset : offset+n]
		offset += n

		if len(entry) < 1+4 {
			continue
		}
		hasValue := entry[0] != 0
		keyLen := int(binary.BigEndian.Uint32(entry[1:5]))
		pos := 5
		if pos+keyLen > len(entry) {
			continue
		}
		key, err := decodeGob(entry[pos : pos+keyLen])
		if err != nil {
			continue
		}
		pos += keyLen
		if !hasValue {
			kv.Keys[key] = struct{}{}
			continue
		}
		if pos+4 > len(entry) {
			continue
		}
		valueLen := int(binary.BigEndian.Uint32(entry[pos : pos+4]))
		pos += 4
		if pos+valueLen > len(entry) {
			continue
		}
		value, err := decodeGob(entry[pos : pos+valueLen])
		if err != nil {
			continue
		}
		kv.Values[key] = value
	}
	obslog.Action(s.logger, "load_data_from_storage", nil, zap.String("path", path))
	return kv, nil
}

// LoadKeyValues reconstructs every append-log file starting with fileKey
// and returns one KeyValues per file, keyed by its secondary suffix: ""
// for the unsuffixed file, "0", "1", ... for sharded secondary-keyed
// files. It returns nil when no file matches.
func (s *StorageAdapter) LoadKeyValues(fileKey string) (map[string]KeyValues, error) {
	raw, err := s.scan(fileKey, func(path string) (any, error) { return s.loadKeyValuesFromFile(path) })
	if err != nil || raw == nil {
		return nil, err
	}
	out := make(map[string]KeyValues, len(raw))
	for k, v := range raw {
		out[k] = v.(KeyValues)
	}
	return out, nil
}

// Update atomically replaces fileKey's whole-snapshot file with data:
// write to a temp file in the same directory, then rename over the
// target so a reader never observes a partially written snapshot.
func (s *StorageAdapter) Update(fileKey string, data any, secondaryFileKey string) error {
	path := s.filePath(fileKey, secondaryFileKey)
	tempPath := s.tempFilePath()

	encoded, err := encodeGob(data)
	if err != nil {
		obslog.Action(s.logger, "update_data_in_storage", err, zap.String("path", path))
		return err
	}
	if err := os.WriteFile(tempPath, encoded, 0o644); err != nil {
		obslog.Action(s.logger, "update_data_in_storage", err, zap.String("path", path))
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		obslog.Action(s.logger, "update_data_in_storage", err, zap.String("path", path))
		return err
	}
	obslog.Action(s.logger, "update_data_in_storage", nil, zap.String("path", path))
	return nil
}

func (s *StorageAdapter) loadDataFromFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		obslog.Action(s.logger, "load_data_from_storage", fmt.Errorf("empty file"), zap.String("path", path))
		return nil, nil
	}
	value, err := decodeGob(data)
	if err != nil {
		obslog.Action(s.logger, "load_data_from_storage", err, zap.String("path", path))
		return nil, nil
	}
	obslog.Action(s.logger, "load_data_from_storage", nil, zap.String("path", path))
	return value, nil
}

// LoadData loads the whole-snapshot file(s) starting with fileKey, the
// Update counterpart to LoadKeyValues.
func (s *StorageAdapter) LoadData(fileKey string) (map[string]any, error) {
	raw, err := s.scan(fileKey, func(path string) (any, error) { return s.loadDataFromFile(path) })
	if err != nil || raw == nil {
		return nil, err
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out, nil
}

func (s *StorageAdapter) scan(fileKey string, load func(path string) (any, error)) (map[string]any, error) {
	type result struct {
		secondary string
		value     any
	}
	var results []result

	entries, err := os.ReadDir(s.storagePath)
	if err != nil {
		return nil, fmt.Errorf("storageadapter: scan %s: %w", s.storagePath, err)
	}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, fileKey) {
			continue
		}
		path := filepath.Join(s.storagePath, name)
		value, err := load(path)
		if err != nil {
			continue
		}
		secondary := ""
		if name != fileKey {
			secondary = name[len(fileKey):]
		}
		results = append(results, result{secondary: secondary, value: value})
	}
	if len(results) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(results))
	for _, r := range results {
		out[r.secondary] = r.value
	}
	return out, nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func appendUint8(b []byte, v uint8) []byte {
	return append(b, v)
}

func appendUint32(b []byte, v uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return append(b, buf[:]...)
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
