// Package snapstore persists frame dumps, either in a local Badger database or
// in a Google Cloud Storage bucket.
package snapstore

import (
	"context"
	"encoding/binary"

	"golang.org/x/xerrors"
)

// Store accepts named snapshot blobs.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	Close() error
}

// ErrNotFound is returned when a lookup matches no snapshot.
var ErrNotFound = xerrors.New("snapshot not found")

// Snapshot is one stored blob.  Seq is assigned by the store and is zero for
// stores that do not number their entries.
type Snapshot struct {
	Seq  uint64
	Name string
	Data []byte
}

// encodeValue lays out a record as a uvarint name length, the name, then the
// data.
func encodeValue(name string, data []byte) []byte {
	out := make([]byte, binary.MaxVarintLen64, binary.MaxVarintLen64+len(name)+len(data))
	n := binary.PutUvarint(out, uint64(len(name)))
	out = out[:n]
	out = append(out, name...)
	out = append(out, data...)
	return out
}

func decodeValue(v []byte) (string, []byte, error) {
	l, n := binary.Uvarint(v)
	if n <= 0 {
		return "", nil, xerrors.New("bad name length in snapshot record")
	}
	v = v[n:]
	if l > uint64(len(v)) {
		return "", nil, xerrors.Errorf("name length %d overruns %d-byte record", l, len(v))
	}
	return string(v[:l]), v[l:], nil
}
