// Package validation enforces the key/value shape checks that must pass
// before the durability protocol (WAL append + fsync + apply) begins, so a
// rejected request never leaves a partial trace on disk.
package validation

import (
	"fmt"
	"unicode/utf8"

	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/kverrors"
)

const (
	// MaxKeySize bounds an individual key.
	MaxKeySize = 1024

	// MaxRecordSize bounds a single serialized WAL line. Value has no size
	// limit of its own; it is bounded transitively by this framing limit.
	MaxRecordSize = 8 * 1024 * 1024
)

// ValidateKey checks that key is a non-empty, framing-safe UTF-8 string.
func ValidateKey(key string) error {
	if key == "" {
		return kverrors.NewProtocolError("key must not be empty")
	}
	if !utf8.ValidString(key) {
		return kverrors.NewProtocolError("key must be valid UTF-8")
	}
	if len(key) > MaxKeySize {
		return kverrors.NewProtocolError(fmt.Sprintf("key exceeds maximum size of %d bytes", MaxKeySize))
	}
	return nil
}

// ValidateValue checks that value is valid UTF-8. Empty values are allowed.
func ValidateValue(value string) error {
	if !utf8.ValidString(value) {
		return kverrors.NewProtocolError("value must be valid UTF-8")
	}
	return nil
}

// ValidateRecordSize checks that a serialized WAL line fits within the
// framing limit before it is appended. This must run before the WAL is
// touched — the durability protocol never writes a partial record.
func ValidateRecordSize(encoded []byte) error {
	if len(encoded) > MaxRecordSize {
		return kverrors.NewProtocolError(fmt.Sprintf("record exceeds maximum wal line size of %d bytes", MaxRecordSize))
	}
	return nil
}
