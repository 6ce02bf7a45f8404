package wire_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/opslane/supervisor/internal/wire"
)

func TestInt32RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := int32(-123456)

	if err := wire.WriteInt32(&buf, want); err != nil {
		t.Fatalf("WriteInt32(%d) = %v", want, err)
	}
	got, err := wire.ReadInt32(&buf)
	if err != nil {
		t.Fatalf("ReadInt32() = error %v", err)
	}
	if got != want {
		t.Errorf("ReadInt32() = %d, want %d", got, want)
	}
}

func TestBoolRoundTrip(t *testing.T) {
	for _, want := range []bool{true, false} {
		var buf bytes.Buffer
		if err := wire.WriteBool(&buf, want); err != nil {
			t.Fatalf("WriteBool(%v) = %v", want, err)
		}
		got, err := wire.ReadBool(&buf)
		if err != nil {
			t.Fatalf("ReadBool() = error %v", err)
		}
		if got != want {
			t.Errorf("ReadBool() = %v, want %v", got, want)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := "/usr/bin/supervised-thing --flag=value"

	if err := wire.WriteString(&buf, want); err != nil {
		t.Fatalf("WriteString(%q) = %v", want, err)
	}
	got, err := wire.ReadString(&buf)
	if err != nil {
		t.Fatalf("ReadString() = error %v", err)
	}
	if got != want {
		t.Errorf("ReadString() = %q, want %q", got, want)
	}
}

func TestShortReadIsConnectionBreak(t *testing.T) {
	// Only 2 of the 4 required bytes for an int32.
	buf := bytes.NewReader([]byte{0x00, 0x01})

	_, err := wire.ReadInt32(buf)
	if !errors.Is(err, wire.ErrConnectionBreak) {
		t.Errorf("ReadInt32(short buffer) = %v, want ErrConnectionBreak", err)
	}
}

func TestReadStringEOFIsConnectionBreak(t *testing.T) {
	_, err := wire.ReadString(bytes.NewReader(nil))
	if !errors.Is(err, wire.ErrConnectionBreak) {
		t.Errorf("ReadString(empty) = %v, want ErrConnectionBreak", err)
	}
}
