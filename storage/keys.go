package storage

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/umpyre-code/switchroom/envelope"
)

// escape doubles every NUL byte in id so a client ID containing a literal
// NUL cannot be mistaken for a key-component boundary when concatenated
// with the fixed NUL separator used below.
func escape(id string) []byte {
	if !bytes.ContainsRune([]byte(id), 0) {
		return []byte(id)
	}
	return bytes.ReplaceAll([]byte(id), []byte{0}, []byte{0, 0})
}

// intDate encodes a UTC calendar date as year*10000 + month*100 + day,
// preserving chronological ordering under both integer and big-endian
// byte-string comparison.
func intDate(t time.Time) uint32 {
	u := t.UTC()
	y, m, d := u.Date()
	return uint32(y)*10000 + uint32(m)*100 + uint32(d)
}

// messageKey builds a key in the messages bucket:
// client_id | 0x00 | hash | 0x00 | start(uint32 BE).
func messageKey(clientID string, hash [envelope.HashSize]byte, start uint32) []byte {
	key := make([]byte, 0, len(clientID)+1+envelope.HashSize+1+4)
	key = append(key, escape(clientID)...)
	key = append(key, 0)
	key = append(key, hash[:]...)
	key = append(key, 0)
	var startBuf [4]byte
	binary.BigEndian.PutUint32(startBuf[:], start)
	key = append(key, startBuf[:]...)
	return key
}

// messageRowPrefix is the common prefix of every chunk under one endpoint
// row: client_id | 0x00 | hash | 0x00.
func messageRowPrefix(clientID string, hash [envelope.HashSize]byte) []byte {
	prefix := make([]byte, 0, len(clientID)+1+envelope.HashSize+1)
	prefix = append(prefix, escape(clientID)...)
	prefix = append(prefix, 0)
	prefix = append(prefix, hash[:]...)
	prefix = append(prefix, 0)
	return prefix
}

// messageScanPrefix is the prefix of every row belonging to one client:
// client_id | 0x00.
func messageScanPrefix(clientID string) []byte {
	prefix := make([]byte, 0, len(clientID)+1)
	prefix = append(prefix, escape(clientID)...)
	prefix = append(prefix, 0)
	return prefix
}

// expiryKey builds a key in the expiry bucket:
// int_date(uint32 BE) | client_id | 0x00 | hash.
func expiryKey(date uint32, clientID string, hash [envelope.HashSize]byte) []byte {
	key := make([]byte, 0, 4+len(clientID)+1+envelope.HashSize)
	var dateBuf [4]byte
	binary.BigEndian.PutUint32(dateBuf[:], date)
	key = append(key, dateBuf[:]...)
	key = append(key, escape(clientID)...)
	key = append(key, 0)
	key = append(key, hash[:]...)
	return key
}

// splitExpiryKey parses an expiry-bucket key back into its components. It
// assumes the key was produced by expiryKey and is at least long enough to
// hold the fixed-width date and hash fields; a client ID containing a
// doubled-NUL escape sequence round-trips correctly because the NUL
// separator is the first unescaped (single) NUL found scanning forward.
func splitExpiryKey(key []byte) (date uint32, clientID string, hash [envelope.HashSize]byte, ok bool) {
	if len(key) < 4+envelope.HashSize+1 {
		return 0, "", hash, false
	}
	date = binary.BigEndian.Uint32(key[0:4])
	rest := key[4:]
	if len(rest) < envelope.HashSize {
		return 0, "", hash, false
	}
	hashStart := len(rest) - envelope.HashSize
	sep := findSeparator(rest[:hashStart])
	if sep < 0 {
		return 0, "", hash, false
	}
	clientID = unescape(rest[:sep])
	copy(hash[:], rest[hashStart:])
	return date, clientID, hash, true
}

// findSeparator locates the single unescaped NUL terminating the client ID
// component, scanning left to right and treating any 0x00 0x00 pair as an
// escaped literal NUL rather than the terminator.
func findSeparator(b []byte) int {
	for i := 0; i < len(b); i++ {
		if b[i] != 0 {
			continue
		}
		if i+1 < len(b) && b[i+1] == 0 {
			i++
			continue
		}
		return i
	}
	return -1
}

func unescape(b []byte) string {
	if !bytes.Contains(b, []byte{0, 0}) {
		return string(b)
	}
	return string(bytes.ReplaceAll(b, []byte{0, 0}, []byte{0}))
}
