// Package storage is the bbolt-backed transactional key-value engine
// described in spec.md §4.4: dual-indexed message rows plus a date-keyed
// expiry index, both addressed with order-preserving tuple encodings
// (keys.go).
package storage

import (
	"bytes"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/umpyre-code/switchroom/blob"
	"github.com/umpyre-code/switchroom/envelope"
)

var (
	messagesBucket = []byte("messages")
	expiryBucket   = []byte("expiry")
)

// Engine is a single bbolt database standing in for the ordered
// transactional KV engine spec.md §1 treats as an external collaborator.
type Engine struct {
	db *bolt.DB
}

// Open opens (creating if absent) the database at path and ensures both
// top-level buckets exist.
func Open(path string, timeout time.Duration) (*Engine, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, newError(KindStorageError, "open %s: %v", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(messagesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(expiryBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, newError(KindStorageError, "init buckets: %v", err)
	}
	return &Engine{db: db}, nil
}

// Close releases the underlying database file.
func (e *Engine) Close() error {
	return e.db.Close()
}

// Insert writes env under both endpoints in one transaction: chunked
// message rows (§4.3) plus a matching pair of expiry-index entries.
// Re-inserting an identical envelope (same hash, same received_at) writes
// identical keys with identical values and is therefore a no-op in
// effect (spec.md §4.4's idempotence guarantee).
func (e *Engine) Insert(env envelope.Message) (envelope.Message, error) {
	buf := envelope.Encode(env)
	date := intDate(env.Date())

	err := e.db.Update(func(tx *bolt.Tx) error {
		messages := tx.Bucket(messagesBucket)
		expiry := tx.Bucket(expiryBucket)

		for _, endpoint := range []string{env.To, env.From} {
			for _, placed := range blob.Split(buf, date) {
				key := messageKey(endpoint, env.Hash, placed.Offset)
				if err := messages.Put(key, blob.Encode(placed.Chunk)); err != nil {
					return err
				}
			}
			if err := expiry.Put(expiryKey(date, endpoint, env.Hash), []byte{}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return envelope.Message{}, newError(KindStorageError, "insert: %v", err)
	}
	return env, nil
}

// GetMessagesFor range-scans every row addressed to or from clientID,
// reassembles each endpoint row into an envelope, and keeps only those for
// which predicate(hash) reports true. A partial or corrupt chunk group
// invokes onDecodeFailure (if non-nil) and is skipped rather than
// aborting the scan.
func (e *Engine) GetMessagesFor(clientID string, predicate func(hash [envelope.HashSize]byte) bool, onDecodeFailure func()) ([]envelope.Message, error) {
	var out []envelope.Message
	prefix := messageScanPrefix(clientID)
	const suffixLen = envelope.HashSize + 1 + 4

	fail := func() {
		if onDecodeFailure != nil {
			onDecodeFailure()
		}
	}

	err := e.db.View(func(tx *bolt.Tx) error {
		messages := tx.Bucket(messagesBucket)
		c := messages.Cursor()

		var groupHash [envelope.HashSize]byte
		var group []blob.Chunk
		haveGroup := false
		groupBad := false

		flush := func() {
			if !haveGroup {
				return
			}
			if groupBad {
				fail()
			} else if msg, ok := decodeGroup(group); ok {
				if predicate(msg.Hash) {
					out = append(out, msg)
				}
			} else {
				fail()
			}
			group = nil
			haveGroup = false
			groupBad = false
		}

		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			suffix := k[len(prefix):]
			if len(suffix) != suffixLen {
				fail()
				continue
			}
			var hash [envelope.HashSize]byte
			copy(hash[:], suffix[:envelope.HashSize])

			if haveGroup && hash != groupHash {
				flush()
			}
			groupHash = hash
			haveGroup = true

			chunk, err := blob.Decode(v)
			if err != nil {
				groupBad = true
				continue
			}
			group = append(group, chunk)
		}
		flush()
		return nil
	})
	if err != nil {
		return nil, newError(KindStorageError, "get_messages_for: %v", err)
	}
	return out, nil
}

// decodeGroup reassembles one endpoint row's chunks into an envelope.
func decodeGroup(chunks []blob.Chunk) (envelope.Message, bool) {
	body, ok := blob.Reassemble(chunks)
	if !ok {
		return envelope.Message{}, false
	}
	msg, err := envelope.Decode(body)
	if err != nil {
		return envelope.Message{}, false
	}
	return msg, true
}

// ClearExpired removes every message whose receive date is on or before
// now's date minus horizonDays, returning the number of expiry
// entries swept. It collects matching keys before deleting them (a
// two-pass pattern that avoids cursor-skip hazards when deleting while
// iterating).
func (e *Engine) ClearExpired(horizonDays int, now time.Time) (int, error) {
	cutoff := intDate(now.AddDate(0, 0, -horizonDays))

	type hit struct {
		date     uint32
		clientID string
		hash     [envelope.HashSize]byte
	}
	var hits []hit

	err := e.db.Update(func(tx *bolt.Tx) error {
		messages := tx.Bucket(messagesBucket)
		expiry := tx.Bucket(expiryBucket)
		ec := expiry.Cursor()

		for k, _ := ec.First(); k != nil; k, _ = ec.Next() {
			date, clientID, hash, ok := splitExpiryKey(k)
			if !ok {
				continue
			}
			if date > cutoff {
				break // expiry keys are date-prefixed, so the rest only gets newer
			}
			hits = append(hits, hit{date: date, clientID: clientID, hash: hash})
		}

		for _, h := range hits {
			rowPrefix := messageRowPrefix(h.clientID, h.hash)
			mc := messages.Cursor()
			for k, _ := mc.Seek(rowPrefix); k != nil && bytes.HasPrefix(k, rowPrefix); k, _ = mc.Seek(rowPrefix) {
				if err := mc.Delete(); err != nil {
					return err
				}
			}
			if err := expiry.Delete(expiryKey(h.date, h.clientID, h.hash)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, newError(KindStorageError, "clear_expired: %v", err)
	}
	return len(hits), nil
}
