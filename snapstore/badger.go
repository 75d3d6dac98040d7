package snapstore

import (
	"context"
	"encoding/binary"
	"os"

	"github.com/dgraph-io/badger"
	"golang.org/x/xerrors"
)

// Key prefixes that denote the tables in the key-value store.
const (
	KeyTypeSnapshot    uint32 = 0
	KeyTypeSnapshotSeq uint32 = 1
)

func SnapshotKey(seq uint64) []byte {
	key := make([]byte, 12)
	binary.BigEndian.PutUint32(key[0:4], KeyTypeSnapshot)
	binary.BigEndian.PutUint64(key[4:12], seq)
	return key
}

func DecodeSnapshotKey(key []byte) (uint64, error) {
	if len(key) != 12 {
		return 0, xerrors.Errorf("key has wrong length; got %d, want 12", len(key))
	}
	if t := binary.BigEndian.Uint32(key[0:4]); t != KeyTypeSnapshot {
		return 0, xerrors.Errorf("key is for table %d, not snapshots", t)
	}
	return binary.BigEndian.Uint64(key[4:12]), nil
}

func SnapshotKeyPrefix() []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key[0:4], KeyTypeSnapshot)
	return key
}

func SnapshotSeqKey() []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key[0:4], KeyTypeSnapshotSeq)
	return key
}

// Badger numbers snapshots in the order they are put.
type Badger struct {
	DB *badger.DB

	seq *badger.Sequence
}

var _ Store = (*Badger)(nil)

// NewBadger opens (creating if needed) the database in dataDir.  With clear
// set, any existing database is removed first.
func NewBadger(dataDir string, clear bool) (*Badger, error) {
	if clear {
		if err := os.RemoveAll(dataDir); err != nil {
			return nil, xerrors.Errorf("while clearing data dir %q: %w", dataDir, err)
		}
	}

	db, err := badger.Open(badger.DefaultOptions(dataDir).WithLogger(nil))
	if err != nil {
		return nil, xerrors.Errorf("while opening badger kv dir: %w", err)
	}

	seq, err := db.GetSequence(SnapshotSeqKey(), 100)
	if err != nil {
		db.Close()
		return nil, xerrors.Errorf("while retrieving snapshot sequence: %w", err)
	}

	return &Badger{DB: db, seq: seq}, nil
}

func (b *Badger) Close() error {
	if err := b.seq.Release(); err != nil {
		return xerrors.Errorf("while releasing snapshot sequence: %w", err)
	}
	if err := b.DB.Close(); err != nil {
		return xerrors.Errorf("while closing database: %w", err)
	}
	return nil
}

// Put stores data under the next sequence number.  Sequence numbers start
// at 1.
func (b *Badger) Put(ctx context.Context, name string, data []byte) error {
	_, err := b.PutSeq(ctx, name, data)
	return err
}

func (b *Badger) PutSeq(ctx context.Context, name string, data []byte) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	seq, err := b.nextSeq()
	if err != nil {
		return 0, err
	}

	err = b.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(SnapshotKey(seq), encodeValue(name, data))
	})
	if err != nil {
		return 0, xerrors.Errorf("while recording snapshot %d: %w", seq, err)
	}
	return seq, nil
}

func (b *Badger) nextSeq() (uint64, error) {
	for {
		seq, err := b.seq.Next()
		if err != nil {
			return 0, xerrors.Errorf("while advancing snapshot sequence: %w", err)
		}
		// Badger sequences start at zero; keep zero free to mean "unnumbered".
		if seq != 0 {
			return seq, nil
		}
	}
}

// Get returns the snapshot with the given sequence number.
func (b *Badger) Get(seq uint64) (*Snapshot, error) {
	var snap *Snapshot
	err := b.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(SnapshotKey(seq))
		if err != nil {
			return err
		}
		v, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		snap, err = toSnapshot(seq, v)
		return err
	})
	if xerrors.Is(err, badger.ErrKeyNotFound) {
		return nil, xerrors.Errorf("snapshot %d: %w", seq, ErrNotFound)
	}
	if err != nil {
		return nil, xerrors.Errorf("while reading snapshot %d: %w", seq, err)
	}
	return snap, nil
}

// Latest returns the most recently put snapshot.
func (b *Badger) Latest() (*Snapshot, error) {
	var snap *Snapshot
	err := b.DB.View(func(txn *badger.Txn) error {
		prefix := SnapshotKeyPrefix()
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: true,
			PrefetchSize:   1,
			Reverse:        true,
			Prefix:         prefix,
		})
		defer it.Close()

		// A reverse scan has to start past the last key with the prefix.
		for it.Seek(append(prefix, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)); it.Valid(); it.Next() {
			item := it.Item()
			seq, err := DecodeSnapshotKey(item.KeyCopy(nil))
			if err != nil {
				return xerrors.Errorf("while decoding snapshot key: %w", err)
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			snap, err = toSnapshot(seq, v)
			return err
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, xerrors.Errorf("while looking up latest snapshot: %w", err)
	}
	return snap, nil
}

// List returns every snapshot in sequence order.
func (b *Badger) List() ([]*Snapshot, error) {
	out := []*Snapshot{}
	err := b.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: true,
			PrefetchSize:   100,
			Prefix:         SnapshotKeyPrefix(),
		})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			seq, err := DecodeSnapshotKey(item.KeyCopy(nil))
			if err != nil {
				return xerrors.Errorf("while decoding snapshot key: %w", err)
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			snap, err := toSnapshot(seq, v)
			if err != nil {
				return err
			}
			out = append(out, snap)
		}
		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("while listing snapshots: %w", err)
	}
	return out, nil
}

func toSnapshot(seq uint64, v []byte) (*Snapshot, error) {
	name, data, err := decodeValue(v)
	if err != nil {
		return nil, xerrors.Errorf("while decoding snapshot %d: %w", seq, err)
	}
	return &Snapshot{Seq: seq, Name: name, Data: data}, nil
}
