// Package demowire is the framing used by the owl-authd and owl-login
// demo binaries: a 4-byte big-endian length prefix followed by a CBOR
// envelope whose payload is a pkg/wire record. It is demo plumbing,
// not part of the protocol surface; real deployments wrap the wire
// records in their own channel.
package demowire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Envelope types.
const (
	TypeRegister         uint8 = 1
	TypeAuthInit         uint8 = 2
	TypeAuthFinish       uint8 = 3
	TypeRegistered       uint8 = 10
	TypeAuthInitResponse uint8 = 11
	TypeOK               uint8 = 12
	TypeError            uint8 = 255
)

// Service discovery constants.
const (
	ServiceType = "_owl-authd._tcp"
	Domain      = "local."
	DefaultPort = 4777
)

// DefaultMaxFrameSize bounds incoming frames.
const DefaultMaxFrameSize = 64 * 1024

// Framing errors.
var (
	ErrFrameTooLarge = errors.New("demowire: frame exceeds maximum size")
)

// Envelope carries one request or response.
// CBOR: { 1: type, 2: username, 3: session, 4: payload, 5: message }
type Envelope struct {
	Type     uint8  `cbor:"1,keyasint"`
	Username string `cbor:"2,keyasint,omitempty"`
	Session  string `cbor:"3,keyasint,omitempty"`
	Payload  []byte `cbor:"4,keyasint,omitempty"`
	Message  string `cbor:"5,keyasint,omitempty"`
}

// WriteFrame writes a length-prefixed envelope.
func WriteFrame(w io.Writer, env *Envelope) error {
	data, err := cbor.Marshal(env)
	if err != nil {
		return fmt.Errorf("demowire: encode: %w", err)
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadFrame reads one length-prefixed envelope.
func ReadFrame(r io.Reader, maxSize uint32) (*Envelope, error) {
	if maxSize == 0 {
		maxSize = DefaultMaxFrameSize
	}
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(lenBuf[:])
	if size > maxSize {
		return nil, ErrFrameTooLarge
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	env := &Envelope{}
	if err := cbor.Unmarshal(data, env); err != nil {
		return nil, fmt.Errorf("demowire: decode: %w", err)
	}
	return env, nil
}
