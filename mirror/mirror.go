// Package mirror keeps a serialized snapshot of the photo list in a
// key-value side store so a gallery can still be shown when the database
// cannot be reached. The snapshot is never authoritative.
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"photogallery/models"
)

// SnapshotKey is the single key every snapshot is written under.
const SnapshotKey = "gallery:photos"

// ErrSerialization marks a snapshot that exists but cannot be decoded.
var ErrSerialization = errors.New("mirror snapshot unreadable")

// KV is the side store holding the snapshot.
type KV interface {
	// Get returns ok=false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Mirror reads and writes the photo snapshot.
type Mirror struct {
	kv  KV
	key string
	log *zap.Logger
}

// New returns a mirror over kv.
func New(kv KV, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{kv: kv, key: SnapshotKey, log: logger.Named("mirror")}
}

// Snapshot replaces the stored snapshot with photos.
func (m *Mirror) Snapshot(ctx context.Context, photos []models.Photo) error {
	if photos == nil {
		photos = []models.Photo{}
	}
	data, err := json.Marshal(photos)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrSerialization, err)
	}
	if err := m.kv.Set(ctx, m.key, data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	m.log.Debug("snapshot written", zap.Int("count", len(photos)))
	return nil
}

// Read returns the stored snapshot. A missing, unreachable or corrupt
// snapshot reads as empty; the cause is only logged.
func (m *Mirror) Read(ctx context.Context) []models.Photo {
	photos, err := m.load(ctx)
	if err != nil {
		m.log.Warn("snapshot unavailable, treating as empty", zap.Error(err))
		return []models.Photo{}
	}
	return photos
}

// Evict drops the photo with id from the snapshot and writes the rest back.
func (m *Mirror) Evict(ctx context.Context, id int64) error {
	photos, err := m.load(ctx)
	if err != nil {
		if !errors.Is(err, ErrSerialization) {
			return err
		}
		// Rewriting an empty set clears the corrupt payload.
		m.log.Warn("corrupt snapshot dropped during evict", zap.Error(err))
		photos = []models.Photo{}
	}

	kept := photos[:0]
	for _, p := range photos {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	return m.Snapshot(ctx, kept)
}

func (m *Mirror) load(ctx context.Context) ([]models.Photo, error) {
	data, ok, err := m.kv.Get(ctx, m.key)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if !ok {
		return []models.Photo{}, nil
	}

	var photos []models.Photo
	if err := json.Unmarshal(data, &photos); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	if photos == nil {
		photos = []models.Photo{}
	}
	return photos, nil
}
