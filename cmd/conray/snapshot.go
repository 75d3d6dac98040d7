package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"conray/config"
	"conray/framebuffer"
	"conray/framedump"
	"conray/snapstore"

	"github.com/golang/glog"
)

// snapshotter saves every Nth presented frame to each configured store and,
// optionally, as a PNG.
type snapshotter struct {
	every  uint64
	scene  string
	pngDir string
	stores []snapstore.Store

	lastSaved uint64
}

func newSnapshotter(ctx context.Context, cfg *config.Config) (*snapshotter, error) {
	s := &snapshotter{
		scene:  cfg.Scene.Name,
		pngDir: cfg.Snapshot.PNGDir,
	}
	if cfg.Snapshot.Every <= 0 {
		return s, nil
	}
	s.every = uint64(cfg.Snapshot.Every)

	if cfg.Snapshot.BadgerDir != "" {
		b, err := snapstore.NewBadger(cfg.Snapshot.BadgerDir, false)
		if err != nil {
			return nil, fmt.Errorf("while opening snapshot database: %w", err)
		}
		s.stores = append(s.stores, b)
	}
	if cfg.Snapshot.Bucket != "" {
		g, err := newGCSStore(ctx, cfg.Snapshot.Bucket, cfg.Snapshot.Prefix)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.stores = append(s.stores, g)
	}
	if s.pngDir != "" {
		if err := os.MkdirAll(s.pngDir, 0755); err != nil {
			s.Close()
			return nil, fmt.Errorf("while creating PNG directory: %w", err)
		}
	}
	if len(s.stores) == 0 && s.pngDir == "" {
		glog.Infof("Snapshots requested every %d frames but no destination is configured", s.every)
	}
	return s, nil
}

func (s *snapshotter) name(frame uint64) string {
	return fmt.Sprintf("%s-%08d.dump", s.scene, frame)
}

// Maybe saves fb if at least every frames have passed since the last save.
// Failures are logged; rendering carries on.
func (s *snapshotter) Maybe(ctx context.Context, fb *framebuffer.Framebuffer, frame uint64) {
	if s.every == 0 || frame < s.lastSaved+s.every {
		return
	}
	s.lastSaved = frame

	data, err := framedump.Marshal(fb, frame)
	if err != nil {
		glog.Errorf("Failed to encode frame %d: %v", frame, err)
		return
	}

	name := s.name(frame)
	for _, st := range s.stores {
		if err := st.Put(ctx, name, data); err != nil {
			glog.Errorf("Failed to save snapshot %s: %v", name, err)
		}
	}

	if s.pngDir != "" {
		if err := writePNG(filepath.Join(s.pngDir, name+".png"), fb); err != nil {
			glog.Errorf("Failed to save PNG for %s: %v", name, err)
		}
	}
	glog.V(1).Infof("Saved snapshot %s (%d bytes)", name, len(data))
}

func writePNG(path string, fb *framebuffer.Framebuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("while creating file: %w", err)
	}
	if err := framedump.WritePNG(f, fb, 4, 8); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *snapshotter) Close() error {
	var first error
	for _, st := range s.stores {
		if err := st.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
