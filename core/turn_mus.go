package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// TurnMUS serializes Turn values in the MUS binary format for storage.
// Timestamps are carried as Unix microseconds.
var TurnMUS = turnSer{}

type turnSer struct{}

func (turnSer) Marshal(t Turn, bs []byte) (n int) {
	n = varint.Int.Marshal(int(t.Role), bs)
	n += ord.String.Marshal(t.Content, bs[n:])
	n += varint.Int64.Marshal(t.Timestamp.UnixMicro(), bs[n:])
	return n
}

func (turnSer) Unmarshal(bs []byte) (t Turn, n int, err error) {
	role, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	t.Role = Role(role)
	var n1 int
	t.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Timestamp = time.UnixMicro(micros).UTC()
	return
}

func (turnSer) Size(t Turn) (size int) {
	size = varint.Int.Size(int(t.Role))
	size += ord.String.Size(t.Content)
	size += varint.Int64.Size(t.Timestamp.UnixMicro())
	return size
}
