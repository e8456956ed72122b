package codec

import (
	"fmt"

	"github.com/google/uuid"
)

// EncodeUUID returns the 16-byte big-endian (high word first) wire form
// Parquet's UUID logical type mandates (spec §4.4).
func EncodeUUID(u uuid.UUID) []byte {
	b := make([]byte, 16)
	copy(b, u[:])
	return b
}

// DecodeUUID parses a 16-byte FIXED_LEN_BYTE_ARRAY(16) payload back into a
// uuid.UUID.
func DecodeUUID(b []byte) (uuid.UUID, error) {
	if len(b) != 16 {
		return uuid.UUID{}, fmt.Errorf("codec: UUID payload must be 16 bytes, got %d", len(b))
	}
	var u uuid.UUID
	copy(u[:], b)
	return u, nil
}

// DecodeUUIDString parses a 16-byte payload into its canonical
// 8-4-4-4-12 hex string form (spec §8 scenario 4: UUID read as String).
func DecodeUUIDString(b []byte) (string, error) {
	u, err := DecodeUUID(b)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// EncodeUUIDString parses a canonical hex UUID string and encodes it to
// wire form, for String-typed user fields annotated as UUID columns.
func EncodeUUIDString(s string) ([]byte, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("codec: invalid UUID string %q: %w", s, err)
	}
	return EncodeUUID(u), nil
}
