// Package blob implements the chunked-blob wire layout the storage engine
// uses to split an encoded envelope across multiple KV values and
// reassemble it by an ascending-key scan.
package blob

import (
	"encoding/binary"
	"fmt"
)

// ChunkTarget is the target chunk size in bytes (C in spec.md §4.3).
const ChunkTarget = 10_000

// headerSize is the encoded size of a Chunk's fixed-width fields, ahead of
// its variable-length payload.
const headerSize = 4 + 4 + 4

// Chunk is one piece of a split payload, addressed by its byte offset
// within the original value (its storage subkey).
type Chunk struct {
	BlobLength uint32
	BlobChunk  uint32
	Expiry     uint32
	Payload    []byte
}

// chunkCount returns n, the number of chunks a payload of the given length
// splits into: ceil(len/ChunkTarget), with a floor of 1 so an empty
// payload still produces a single (empty) chunk.
func chunkCount(length int) int {
	if length == 0 {
		return 1
	}
	return ceilDiv(length, ChunkTarget)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Placed pairs a Chunk with the storage subkey (byte start offset) it is
// written under.
type Placed struct {
	Offset uint32
	Chunk  Chunk
}

// Split divides v into ordered chunks per spec.md §4.3: n = ceil(|v|/C)
// chunks (floored at 1), each sized s = ceil((|v|+n)/n) so the last chunk
// is never empty and every chunk stays close to the target size. The
// returned offsets are strictly increasing, so the lexicographic order of
// the subkeys matches chunk index order.
func Split(v []byte, expiry uint32) []Placed {
	n := chunkCount(len(v))
	s := ceilDiv(len(v)+n, n)

	out := make([]Placed, 0, n)
	for i := 0; i < n; i++ {
		start := i * s
		end := (i + 1) * s
		if start > len(v) {
			start = len(v)
		}
		if end > len(v) {
			end = len(v)
		}
		payload := make([]byte, end-start)
		copy(payload, v[start:end])
		out = append(out, Placed{
			Offset: uint32(start),
			Chunk: Chunk{
				BlobLength: uint32(len(v)),
				BlobChunk:  uint32(i),
				Expiry:     expiry,
				Payload:    payload,
			},
		})
	}
	return out
}

// Encode serializes a chunk record for storage: fixed-width header
// followed by the raw payload (no length prefix needed — the KV value's
// own length bounds the payload).
func Encode(c Chunk) []byte {
	out := make([]byte, headerSize+len(c.Payload))
	binary.BigEndian.PutUint32(out[0:4], c.BlobLength)
	binary.BigEndian.PutUint32(out[4:8], c.BlobChunk)
	binary.BigEndian.PutUint32(out[8:12], c.Expiry)
	copy(out[headerSize:], c.Payload)
	return out
}

// Decode reverses Encode. It returns an error for anything shorter than a
// header, which the caller treats as a decode failure per spec.md §4.4.
func Decode(b []byte) (Chunk, error) {
	if len(b) < headerSize {
		return Chunk{}, fmt.Errorf("blob: chunk record truncated: %d bytes", len(b))
	}
	c := Chunk{
		BlobLength: binary.BigEndian.Uint32(b[0:4]),
		BlobChunk:  binary.BigEndian.Uint32(b[4:8]),
		Expiry:     binary.BigEndian.Uint32(b[8:12]),
	}
	c.Payload = append([]byte(nil), b[headerSize:]...)
	return c, nil
}

// Reassemble concatenates an ascending-offset run of chunks belonging to
// one endpoint row and returns the original payload. It reports failure
// (rather than erroring) for a partial, out-of-order, or over-long chunk
// group, matching spec.md §4.3's "skip without aborting the scan"
// semantics — the caller is expected to count this as a decode failure and
// continue scanning.
func Reassemble(chunks []Chunk) (body []byte, ok bool) {
	if len(chunks) == 0 {
		return nil, false
	}
	want := chunks[0].BlobLength
	buf := make([]byte, 0, want)
	for i, c := range chunks {
		if c.BlobLength != want {
			return nil, false
		}
		if c.BlobChunk != uint32(i) {
			return nil, false
		}
		buf = append(buf, c.Payload...)
		if uint32(len(buf)) > want {
			return nil, false
		}
	}
	if uint32(len(buf)) != want {
		return nil, false
	}
	return buf, true
}
