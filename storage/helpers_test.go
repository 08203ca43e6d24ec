package storage

import (
	"bytes"
	"testing"

	bolt "go.etcd.io/bbolt"

	"github.com/umpyre-code/switchroom/envelope"
)

// dumpAll renders every key/value in both buckets as a single string, used
// to assert byte-for-byte KV-state equality across a replayed Insert.
func dumpAll(t *testing.T, e *Engine) string {
	t.Helper()
	var buf bytes.Buffer
	err := e.db.View(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{messagesBucket, expiryBucket} {
			b := tx.Bucket(name)
			if err := b.ForEach(func(k, v []byte) error {
				buf.Write(name)
				buf.WriteByte(':')
				buf.Write(k)
				buf.WriteByte('=')
				buf.Write(v)
				buf.WriteByte('\n')
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("dumpAll: %v", err)
	}
	return buf.String()
}

// corruptOneChunk flips a byte in the first chunk stored under clientID's
// row for hash, simulating the on-disk corruption spec.md §8's decode
// resilience scenario exercises.
func corruptOneChunk(t *testing.T, e *Engine, clientID string, hash [envelope.HashSize]byte) {
	t.Helper()
	prefix := messageRowPrefix(clientID, hash)
	err := e.db.Update(func(tx *bolt.Tx) error {
		messages := tx.Bucket(messagesBucket)
		c := messages.Cursor()
		k, v := c.Seek(prefix)
		if k == nil || !bytes.HasPrefix(k, prefix) {
			t.Fatalf("corruptOneChunk: no row found for prefix %x", prefix)
		}
		corrupted := append([]byte(nil), v...)
		corrupted[0] ^= 0xff
		return messages.Put(k, corrupted)
	})
	if err != nil {
		t.Fatalf("corruptOneChunk: %v", err)
	}
}
