package badger

import "encoding/binary"

// Key prefixes for different data types
const (
	turnPrefix    = "histurn"
	sessionPrefix = "hisses"
	turnIDSeq     = "histurnseq"
)

// makeTurnKey generates a composite key for a turn within a session.
// Format: prefix:session:seq
func makeTurnKey(session string, seq uint64) []byte {
	prefix := turnPrefix + ":" + session + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort follows insertion order
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeTurnScanPrefix generates the prefix shared by all turn keys of a session.
func makeTurnScanPrefix(session string) []byte {
	return []byte(turnPrefix + ":" + session + ":")
}

// makeSessionKey generates the marker key recording that a session exists.
func makeSessionKey(session string) []byte {
	return []byte(sessionPrefix + ":" + session)
}
