package snapstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/xerrors"
)

func TestSnapshotKey(t *testing.T) {
	key := SnapshotKey(0x0102030405060708)
	want := []byte{0, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8}
	if diff := cmp.Diff(key, want); diff != "" {
		t.Fatalf("Bad key; diff (-got +want)\n%s", diff)
	}

	seq, err := DecodeSnapshotKey(key)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if seq != 0x0102030405060708 {
		t.Errorf("DecodeSnapshotKey() = %x", seq)
	}

	if _, err := DecodeSnapshotKey(SnapshotSeqKey()); err == nil {
		t.Errorf("Expected an error decoding the sequence key")
	}
	if _, err := DecodeSnapshotKey(append(SnapshotSeqKey(), make([]byte, 8)...)); err == nil {
		t.Errorf("Expected an error decoding a key from another table")
	}
}

func TestValueEncoding(t *testing.T) {
	testCases := []struct {
		desc string
		name string
		data []byte
	}{
		{desc: "typical", name: "frame-000042.dump", data: []byte{1, 2, 3}},
		{desc: "empty data", name: "x", data: []byte{}},
		{desc: "empty name", name: "", data: []byte{9}},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			name, data, err := decodeValue(encodeValue(tc.name, tc.data))
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if diff := cmp.Diff([]interface{}{name, data}, []interface{}{tc.name, tc.data}); diff != "" {
				t.Errorf("Bad round trip; diff (-got +want)\n%s", diff)
			}
		})
	}

	if _, _, err := decodeValue([]byte{10, 'a'}); err == nil {
		t.Errorf("Expected an error for an overrunning name")
	}
	if _, _, err := decodeValue(nil); err == nil {
		t.Errorf("Expected an error for an empty record")
	}
}

func TestBadger(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "snaps")

	b, err := NewBadger(dir, true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := b.Latest(); !xerrors.Is(err, ErrNotFound) {
		t.Fatalf("Latest() on an empty store: %v, want ErrNotFound", err)
	}

	first, err := b.PutSeq(ctx, "a", []byte("one"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := b.Put(ctx, "b", []byte("two")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if first != 1 {
		t.Errorf("First sequence number = %d, want 1", first)
	}

	got, err := b.List()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := []*Snapshot{
		{Seq: 1, Name: "a", Data: []byte("one")},
		{Seq: 2, Name: "b", Data: []byte("two")},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Bad listing; diff (-got +want)\n%s", diff)
	}

	latest, err := b.Latest()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff(latest, want[1]); diff != "" {
		t.Errorf("Bad latest; diff (-got +want)\n%s", diff)
	}

	if _, err := b.Get(99); !xerrors.Is(err, ErrNotFound) {
		t.Errorf("Get(99): %v, want ErrNotFound", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := b.Put(cancelled, "c", nil); err == nil {
		t.Errorf("Put with a cancelled context succeeded")
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Reopening keeps the data and continues the sequence.
	b, err = NewBadger(dir, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer b.Close()

	snap, err := b.Get(2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff(snap, want[1]); diff != "" {
		t.Errorf("Bad snapshot after reopen; diff (-got +want)\n%s", diff)
	}
	next, err := b.PutSeq(ctx, "c", []byte("three"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if next <= 2 {
		t.Errorf("Sequence restarted after reopen: got %d", next)
	}
}

func TestGCSObjectName(t *testing.T) {
	g := NewGCS(nil, "bucket", "conray/snapshots")
	if got, want := g.ObjectName("frame-1.dump"), "conray/snapshots/frame-1.dump"; got != want {
		t.Errorf("ObjectName() = %q, want %q", got, want)
	}
}
