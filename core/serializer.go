package core

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// =============================================================================
// RecordSerializer Interface
// =============================================================================

// RecordSerializer defines the interface for encoding execution-history
// records for export (dashboards, log shipping, offline analysis).
type RecordSerializer interface {
	// Serialize converts a Go value to bytes
	Serialize(v any) ([]byte, error)

	// Deserialize converts bytes back to a Go value
	Deserialize(data []byte, target any) error

	// Name returns the serializer name (for debugging/logging)
	Name() string
}

// =============================================================================
// JSONSerializer Implementation
// =============================================================================

// JSONSerializer uses JSON encoding for serialization.
type JSONSerializer struct{}

// NewJSONSerializer creates a new JSON serializer
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

func (s *JSONSerializer) Serialize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json marshal failed: %w", err)
	}

	return data, nil
}

func (s *JSONSerializer) Deserialize(data []byte, target any) error {
	if target == nil {
		return fmt.Errorf("deserialize target cannot be nil")
	}

	if len(data) == 0 {
		return fmt.Errorf("data is empty")
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("json unmarshal failed: %w", err)
	}

	return nil
}

func (s *JSONSerializer) Name() string {
	return "json"
}

// =============================================================================
// MsgpackSerializer Implementation
// =============================================================================

// MsgpackSerializer uses MessagePack encoding, a compact binary
// alternative to JSON for high-volume history export.
type MsgpackSerializer struct{}

// NewMsgpackSerializer creates a new MessagePack serializer
func NewMsgpackSerializer() *MsgpackSerializer {
	return &MsgpackSerializer{}
}

func (s *MsgpackSerializer) Serialize(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("msgpack marshal failed: %w", err)
	}

	return data, nil
}

func (s *MsgpackSerializer) Deserialize(data []byte, target any) error {
	if target == nil {
		return fmt.Errorf("deserialize target cannot be nil")
	}

	if len(data) == 0 {
		return fmt.Errorf("data is empty")
	}

	if err := msgpack.Unmarshal(data, target); err != nil {
		return fmt.Errorf("msgpack unmarshal failed: %w", err)
	}

	return nil
}

func (s *MsgpackSerializer) Name() string {
	return "msgpack"
}
