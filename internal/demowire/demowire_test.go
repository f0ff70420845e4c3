package demowire

import (
	"bytes"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	env := &Envelope{
		Type:     TypeAuthInit,
		Username: "alice",
		Session:  "sess-1",
		Payload:  []byte{1, 2, 3},
	}

	var buf bytes.Buffer
	if err := WriteFrame(&buf, env); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	got, err := ReadFrame(&buf, 0)
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if got.Type != env.Type || got.Username != env.Username ||
		got.Session != env.Session || !bytes.Equal(got.Payload, env.Payload) {
		t.Errorf("round-trip mismatch: %+v != %+v", got, env)
	}
}

func TestReadFrameEnforcesLimit(t *testing.T) {
	env := &Envelope{Type: TypeRegister, Payload: make([]byte, 1024)}

	var buf bytes.Buffer
	if err := WriteFrame(&buf, env); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	if _, err := ReadFrame(&buf, 16); err != ErrFrameTooLarge {
		t.Fatalf("got %v, want ErrFrameTooLarge", err)
	}
}

func TestReadFrameTruncated(t *testing.T) {
	env := &Envelope{Type: TypeOK}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, env); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	data := buf.Bytes()
	if _, err := ReadFrame(bytes.NewReader(data[:len(data)-1]), 0); err == nil {
		t.Fatal("truncated frame should not parse")
	}
}
