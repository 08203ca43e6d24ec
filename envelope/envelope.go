// Package envelope implements the content-addressed message envelope:
// canonical deterministic encoding, BLAKE2b-128 integrity hashing, and
// server-side timestamp stamping.
package envelope

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/blake2b"
)

// HashSize is the length in bytes of the envelope integrity digest.
const HashSize = 16

// Timestamp is a wall-clock instant expressed as seconds and nanoseconds
// since the Unix epoch, mirroring the wire representation used by the RPC
// surface.
type Timestamp struct {
	Seconds int64
	Nanos   int32
}

// TimestampFromTime converts a time.Time into the wire Timestamp shape.
func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
}

// Message is the immutable envelope record described in spec §3. Reserved
// fields participate in the hash but receive no validation from this
// package.
type Message struct {
	From string
	To   string
	Body []byte

	ReceivedAt Timestamp
	Hash       [HashSize]byte

	Nonce              []byte
	SenderPublicKey    []byte
	RecipientPublicKey []byte
	PDA                []byte
	SentAt             Timestamp
	Signature          []byte
}

// Now is overridable in tests to pin the server-stamped receive time.
var Now = time.Now

// Stamp fills ReceivedAt with the current time, zeroes Hash, computes the
// integrity digest over the canonical encoding, and returns the stamped
// copy. Any caller-supplied ReceivedAt or Hash is discarded: spec.md pins
// received_at to be server-assigned on every send, never client-supplied.
func Stamp(m Message) Message {
	stamped := m
	stamped.ReceivedAt = TimestampFromTime(Now())
	stamped.Hash = [HashSize]byte{}
	stamped.Hash = digest(stamped)
	return stamped
}

// Verify recomputes the digest with Hash zeroed and reports whether it
// matches the stored Hash. It is a pure function; it never touches I/O.
func Verify(m Message) bool {
	check := m
	check.Hash = [HashSize]byte{}
	return digest(check) == m.Hash
}

func digest(m Message) [HashSize]byte {
	h, err := blake2b.New(HashSize, nil)
	if err != nil {
		// blake2b.New only fails for an out-of-range size or an
		// oversized key; HashSize and a nil key are always valid.
		panic(fmt.Sprintf("envelope: blake2b.New(%d, nil): %v", HashSize, err))
	}
	h.Write(Encode(m))
	var out [HashSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Encode produces the canonical byte encoding of m: fixed field order, no
// optional-field alias maps, every variable-length field prefixed with its
// big-endian uint32 length. Two encodings of field-for-field equal messages
// always produce identical bytes.
func Encode(m Message) []byte {
	var buf bytes.Buffer
	writeBytes(&buf, []byte(m.From))
	writeBytes(&buf, []byte(m.To))
	writeBytes(&buf, m.Body)
	writeTimestamp(&buf, m.ReceivedAt)
	buf.Write(m.Hash[:])
	writeBytes(&buf, m.Nonce)
	writeBytes(&buf, m.SenderPublicKey)
	writeBytes(&buf, m.RecipientPublicKey)
	writeBytes(&buf, m.PDA)
	writeTimestamp(&buf, m.SentAt)
	writeBytes(&buf, m.Signature)
	return buf.Bytes()
}

// Decode reverses Encode. It is the inverse used when reassembling an
// envelope from stored chunks.
func Decode(b []byte) (Message, error) {
	r := bytes.NewReader(b)
	var m Message
	var err error

	from, err := readBytes(r)
	if err != nil {
		return Message{}, fmt.Errorf("envelope: decode from: %w", err)
	}
	m.From = string(from)

	to, err := readBytes(r)
	if err != nil {
		return Message{}, fmt.Errorf("envelope: decode to: %w", err)
	}
	m.To = string(to)

	if m.Body, err = readBytes(r); err != nil {
		return Message{}, fmt.Errorf("envelope: decode body: %w", err)
	}
	if m.ReceivedAt, err = readTimestamp(r); err != nil {
		return Message{}, fmt.Errorf("envelope: decode received_at: %w", err)
	}
	if _, err := io.ReadFull(r, m.Hash[:]); err != nil {
		return Message{}, fmt.Errorf("envelope: decode hash: %w", err)
	}
	if m.Nonce, err = readBytes(r); err != nil {
		return Message{}, fmt.Errorf("envelope: decode nonce: %w", err)
	}
	if m.SenderPublicKey, err = readBytes(r); err != nil {
		return Message{}, fmt.Errorf("envelope: decode sender_public_key: %w", err)
	}
	if m.RecipientPublicKey, err = readBytes(r); err != nil {
		return Message{}, fmt.Errorf("envelope: decode recipient_public_key: %w", err)
	}
	if m.PDA, err = readBytes(r); err != nil {
		return Message{}, fmt.Errorf("envelope: decode pda: %w", err)
	}
	if m.SentAt, err = readTimestamp(r); err != nil {
		return Message{}, fmt.Errorf("envelope: decode sent_at: %w", err)
	}
	if m.Signature, err = readBytes(r); err != nil {
		return Message{}, fmt.Errorf("envelope: decode signature: %w", err)
	}
	if r.Len() != 0 {
		return Message{}, fmt.Errorf("envelope: decode: %d trailing bytes", r.Len())
	}
	return m, nil
}

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

func writeTimestamp(buf *bytes.Buffer, ts Timestamp) {
	var b [12]byte
	binary.BigEndian.PutUint64(b[0:8], uint64(ts.Seconds))
	binary.BigEndian.PutUint32(b[8:12], uint32(ts.Nanos))
	buf.Write(b[:])
}

func readTimestamp(r *bytes.Reader) (Timestamp, error) {
	var b [12]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return Timestamp{}, err
	}
	return Timestamp{
		Seconds: int64(binary.BigEndian.Uint64(b[0:8])),
		Nanos:   int32(binary.BigEndian.Uint32(b[8:12])),
	}, nil
}

// Date returns the UTC calendar date of the receive timestamp.
func (m Message) Date() time.Time {
	return time.Unix(m.ReceivedAt.Seconds, int64(m.ReceivedAt.Nanos)).UTC()
}

// MarshalBinary implements encoding.BinaryMarshaler so a Message can be
// carried directly as an RPC payload by the rpcwire codec.
func (m Message) MarshalBinary() ([]byte, error) {
	return Encode(m), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler, the counterpart
// to MarshalBinary.
func (m *Message) UnmarshalBinary(b []byte) error {
	decoded, err := Decode(b)
	if err != nil {
		return err
	}
	*m = decoded
	return nil
}
