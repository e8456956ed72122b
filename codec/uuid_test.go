package codec

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
)

func TestUUIDRoundTrip(t *testing.T) {
	u := uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")
	b := EncodeUUID(u)
	if len(b) != 16 {
		t.Fatalf("wire length %d", len(b))
	}
	back, err := DecodeUUID(b)
	if err != nil {
		t.Fatal(err)
	}
	if back != u {
		t.Errorf("round trip: %s", back)
	}
}

func TestUUIDBigEndianHighWordFirst(t *testing.T) {
	u := uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")
	want := []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}
	if got := EncodeUUID(u); !bytes.Equal(got, want) {
		t.Errorf("wire form % x", got)
	}
}

func TestDecodeUUIDString(t *testing.T) {
	u := uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")
	s, err := DecodeUUIDString(EncodeUUID(u))
	if err != nil {
		t.Fatal(err)
	}
	if s != "f47ac10b-58cc-4372-a567-0e02b2c3d479" {
		t.Errorf("canonical form %q", s)
	}
}

func TestDecodeUUIDBadLength(t *testing.T) {
	if _, err := DecodeUUID([]byte{1, 2, 3}); err == nil {
		t.Error("short payload must error")
	}
}

func TestEncodeUUIDString(t *testing.T) {
	b, err := EncodeUUIDString("f47ac10b-58cc-4372-a567-0e02b2c3d479")
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 16 {
		t.Errorf("wire length %d", len(b))
	}
	if _, err := EncodeUUIDString("not-a-uuid"); err == nil {
		t.Error("invalid string must error")
	}
}
