package rpcwire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// writeBytes and readBytes mirror envelope's length-prefixed field
// encoding, kept local to this package since request/response messages
// have no reason to depend on the envelope package's internals.

func writeBytes(buf *bytes.Buffer, b []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	buf.Write(lenBuf[:])
	buf.Write(b)
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	out := make([]byte, n)
	if n == 0 {
		return out, nil
	}
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

func writeUint32(buf *bytes.Buffer, n uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], n)
	buf.Write(b[:])
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func checkExhausted(r *bytes.Reader, who string) error {
	if r.Len() != 0 {
		return fmt.Errorf("rpcwire: decode %s: %d trailing bytes", who, r.Len())
	}
	return nil
}
