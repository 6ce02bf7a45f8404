// Package wire implements the length-framed, typed-record control
// protocol used between the supervisor, its clients, and its agent
// helpers: a Listener that accepts Connections, and Connections that
// send/receive whole records built from three self-framed primitives
// (int32, bool, string). A short read of any primitive surfaces as
// ErrConnectionBreak.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrConnectionBreak indicates the peer disconnected, or a record could
// not be read/written in full.
var ErrConnectionBreak = errors.New("wire: connection break")

// maxString bounds string length to guard against a corrupt or hostile
// peer claiming an enormous length prefix.
const maxString = 1 << 20

func wrapShortRead(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrConnectionBreak
	}
	return err
}

// WriteInt32 writes a big-endian 4-byte integer.
func WriteInt32(w io.Writer, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return wrapShortRead(err)
}

// ReadInt32 reads a big-endian 4-byte integer.
func ReadInt32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, wrapShortRead(err)
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

// WriteBool writes a single byte: 1 for true, 0 for false.
func WriteBool(w io.Writer, v bool) error {
	var b [1]byte
	if v {
		b[0] = 1
	}
	_, err := w.Write(b[:])
	return wrapShortRead(err)
}

// ReadBool reads a single byte as a bool.
func ReadBool(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, wrapShortRead(err)
	}
	return b[0] != 0, nil
}

// WriteString writes a uint32 length prefix followed by the UTF-8 bytes.
func WriteString(w io.Writer, s string) error {
	if len(s) > maxString {
		return fmt.Errorf("wire: string of length %d exceeds maximum %d", len(s), maxString)
	}
	if err := WriteInt32(w, int32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return wrapShortRead(err)
}

// ReadString reads a uint32 length prefix followed by that many bytes.
func ReadString(r io.Reader) (string, error) {
	n, err := ReadInt32(r)
	if err != nil {
		return "", err
	}
	if n < 0 || n > maxString {
		return "", fmt.Errorf("wire: implausible string length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", wrapShortRead(err)
	}
	return string(buf), nil
}
