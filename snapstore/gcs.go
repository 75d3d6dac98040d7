package snapstore

import (
	"context"
	"io/ioutil"
	"path"

	"cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/xerrors"
)

// GCS writes each snapshot as one object, bucket/prefix/name.
type GCS struct {
	gcs    *storage.Client
	bucket string
	prefix string
}

var _ Store = (*GCS)(nil)

func NewGCS(gcs *storage.Client, bucket, prefix string) *GCS {
	return &GCS{
		gcs:    gcs,
		bucket: bucket,
		prefix: prefix,
	}
}

func (g *GCS) ObjectName(name string) string {
	return path.Join(g.prefix, name)
}

func (g *GCS) Put(ctx context.Context, name string, data []byte) error {
	tracer := otel.Tracer("conray/snapstore")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GCS.Put")
	defer span.End()

	span.SetAttributes(attribute.String("name", name), attribute.Int("bytes", len(data)))

	w := g.gcs.Bucket(g.bucket).Object(g.ObjectName(name)).NewWriter(ctx)

	// Snapshots are small; skip resumable uploads.
	w.ChunkSize = 0
	w.ContentType = "application/octet-stream"

	if _, err := w.Write(data); err != nil {
		w.Close()
		err := xerrors.Errorf("while writing snapshot to object writer: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := w.Close(); err != nil {
		err := xerrors.Errorf("while closing object writer: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Get reads a snapshot back.  It returns ErrNotFound if the object does not
// exist.
func (g *GCS) Get(ctx context.Context, name string) (*Snapshot, error) {
	tracer := otel.Tracer("conray/snapstore")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GCS.Get")
	defer span.End()

	r, err := g.gcs.Bucket(g.bucket).Object(g.ObjectName(name)).NewReader(ctx)
	if err != nil {
		if xerrors.Is(err, storage.ErrObjectNotExist) {
			span.SetStatus(codes.Ok, "")
			return nil, xerrors.Errorf("object %q: %w", g.ObjectName(name), ErrNotFound)
		}
		err := xerrors.Errorf("while opening reader for object: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer r.Close()

	data, err := ioutil.ReadAll(r)
	if err != nil {
		err := xerrors.Errorf("while reading from object: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return &Snapshot{Name: name, Data: data}, nil
}

// Close leaves the client open; it belongs to the caller.
func (g *GCS) Close() error {
	return nil
}
