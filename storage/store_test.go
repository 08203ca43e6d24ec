package storage

import (
	"crypto/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/umpyre-code/switchroom/envelope"
)

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()
	e, err := Open(filepath.Join(dir, "switchroom.db"), time.Second)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func randomBody(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return b
}

func always(_ [envelope.HashSize]byte) bool { return true }

func noFailures(t *testing.T) func() {
	return func() { t.Error("unexpected decode failure") }
}

func TestInsertAndGetMessagesForRoundTrip(t *testing.T) {
	sizes := []int{0, 1, blobChunkTargetForTest() - 1, blobChunkTargetForTest(), blobChunkTargetForTest() + 1, 10 * blobChunkTargetForTest()}
	for _, size := range sizes {
		e := openTestEngine(t)
		body := randomBody(t, size)
		stamped := envelope.Stamp(envelope.Message{From: "bob", To: "alice", Body: body})

		if _, err := e.Insert(stamped); err != nil {
			t.Fatalf("size %d: Insert: %v", size, err)
		}

		toMsgs, err := e.GetMessagesFor("alice", always, noFailures(t))
		if err != nil {
			t.Fatalf("size %d: GetMessagesFor(alice): %v", size, err)
		}
		if !containsHash(toMsgs, stamped.Hash) {
			t.Fatalf("size %d: alice's messages do not include the inserted hash", size)
		}

		fromMsgs, err := e.GetMessagesFor("bob", always, noFailures(t))
		if err != nil {
			t.Fatalf("size %d: GetMessagesFor(bob): %v", size, err)
		}
		if !containsHash(fromMsgs, stamped.Hash) {
			t.Fatalf("size %d: bob's messages do not include the inserted hash", size)
		}
	}
}

func TestInsertIsIdempotent(t *testing.T) {
	e := openTestEngine(t)
	stamped := envelope.Stamp(envelope.Message{From: "bob", To: "alice", Body: []byte("hello")})

	if _, err := e.Insert(stamped); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	dump1 := dumpAll(t, e)

	if _, err := e.Insert(stamped); err != nil {
		t.Fatalf("second Insert: %v", err)
	}
	dump2 := dumpAll(t, e)

	if dump1 != dump2 {
		t.Fatal("replaying Insert changed the KV state")
	}
}

func TestGetMessagesForAppliesPredicate(t *testing.T) {
	e := openTestEngine(t)
	var hashes [][envelope.HashSize]byte
	for i := 0; i < 3; i++ {
		stamped := envelope.Stamp(envelope.Message{From: "bob", To: "alice", Body: []byte{byte(i)}})
		if _, err := e.Insert(stamped); err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
		hashes = append(hashes, stamped.Hash)
	}

	excluded := map[[envelope.HashSize]byte]bool{hashes[0]: true, hashes[1]: true}
	predicate := func(h [envelope.HashSize]byte) bool { return !excluded[h] }

	got, err := e.GetMessagesFor("alice", predicate, noFailures(t))
	if err != nil {
		t.Fatalf("GetMessagesFor: %v", err)
	}
	if len(got) != 1 || got[0].Hash != hashes[2] {
		t.Fatalf("got %d messages, want exactly the third message", len(got))
	}
}

func TestClearExpiredRemovesOnlyOldMessages(t *testing.T) {
	e := openTestEngine(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	defer func(orig func() time.Time) { envelope.Now = orig }(envelope.Now)

	envelope.Now = func() time.Time { return now.AddDate(0, 0, -5) }
	old := envelope.Stamp(envelope.Message{From: "bob", To: "alice", Body: []byte("old")})

	envelope.Now = func() time.Time { return now }
	fresh := envelope.Stamp(envelope.Message{From: "bob", To: "alice", Body: []byte("fresh")})

	if _, err := e.Insert(old); err != nil {
		t.Fatalf("Insert(old): %v", err)
	}
	if _, err := e.Insert(fresh); err != nil {
		t.Fatalf("Insert(fresh): %v", err)
	}

	cleared, err := e.ClearExpired(1, now)
	if err != nil {
		t.Fatalf("ClearExpired: %v", err)
	}
	if cleared != 2 {
		t.Fatalf("cleared = %d, want 2 (two endpoints of the old message)", cleared)
	}

	aliceMsgs, err := e.GetMessagesFor("alice", always, noFailures(t))
	if err != nil {
		t.Fatalf("GetMessagesFor(alice): %v", err)
	}
	if containsHash(aliceMsgs, old.Hash) {
		t.Fatal("expired message still present for alice")
	}
	if !containsHash(aliceMsgs, fresh.Hash) {
		t.Fatal("fresh message was incorrectly swept")
	}

	bobMsgs, err := e.GetMessagesFor("bob", always, noFailures(t))
	if err != nil {
		t.Fatalf("GetMessagesFor(bob): %v", err)
	}
	if containsHash(bobMsgs, old.Hash) {
		t.Fatal("expired message still present for bob")
	}
}

func TestGetMessagesForCountsDecodeFailures(t *testing.T) {
	e := openTestEngine(t)
	stamped := envelope.Stamp(envelope.Message{From: "bob", To: "alice", Body: []byte("intact")})
	if _, err := e.Insert(stamped); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	corrupted := envelope.Stamp(envelope.Message{From: "bob", To: "alice", Body: []byte("corruptme")})
	if _, err := e.Insert(corrupted); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	corruptOneChunk(t, e, "alice", corrupted.Hash)

	failures := 0
	got, err := e.GetMessagesFor("alice", always, func() { failures++ })
	if err != nil {
		t.Fatalf("GetMessagesFor: %v", err)
	}
	if failures != 1 {
		t.Fatalf("decode failures = %d, want 1", failures)
	}
	if !containsHash(got, stamped.Hash) {
		t.Fatal("intact message missing from scan results")
	}
	if containsHash(got, corrupted.Hash) {
		t.Fatal("corrupted message should not have decoded successfully")
	}
}

func containsHash(msgs []envelope.Message, hash [envelope.HashSize]byte) bool {
	for _, m := range msgs {
		if m.Hash == hash {
			return true
		}
	}
	return false
}

func blobChunkTargetForTest() int { return 10_000 }
