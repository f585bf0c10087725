// Package gallery turns host captures into stored photos and keeps the
// cached snapshot in step with the record store.
package gallery

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"photogallery/models"
	"photogallery/store"
)

// captureLayout matches the millisecond UTC timestamps written by capture.
const captureLayout = "2006-01-02T15:04:05.000Z"

const mapSearchURL = "https://www.google.com/maps/search/?api=1&query="

// Listing is a photo list and whether it came from the cached snapshot.
type Listing struct {
	Photos  []models.Photo `json:"data"`
	Offline bool           `json:"offline"`
}

// Service orchestrates the record store and the cache. It holds no view
// state and is safe to share between the HTTP API and the CLI.
type Service struct {
	store PhotoStore
	cache Cache
	log   *zap.Logger
}

// NewService wires a store and an optional cache (nil disables mirroring).
func NewService(st PhotoStore, cache Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, cache: cache, log: logger.Named("gallery")}
}

// Setup opens the store. Failures are fatal to the session.
func (s *Service) Setup(ctx context.Context) error {
	if err := s.store.Initialize(ctx); err != nil {
		s.log.Error("store initialization failed", zap.Error(err))
		return err
	}
	return nil
}

// Create stores a photo and refreshes the snapshot.
func (s *Service) Create(ctx context.Context, in models.PhotoInput) (int64, error) {
	id, err := s.store.Create(ctx, in)
	if err != nil {
		return 0, err
	}
	s.refreshCache(ctx)
	return id, nil
}

// Photos lists every photo, newest first. When the store is unavailable the
// cached snapshot is returned with Offline set, together with the store error.
func (s *Service) Photos(ctx context.Context) (Listing, error) {
	return s.PhotosOrdered(ctx, store.OrderNewestFirst)
}

// PhotosOrdered is Photos in the given order. The snapshot is always kept
// newest first and is reordered when served offline.
func (s *Service) PhotosOrdered(ctx context.Context, order store.Order) (Listing, error) {
	photos, err := s.store.ListAll(ctx, order)
	if err != nil {
		if errors.Is(err, store.ErrStoreUnavailable) && s.cache != nil {
			s.log.Warn("store unavailable, serving cached snapshot", zap.Error(err))
			return Listing{Photos: sortPhotos(s.cache.Read(ctx), order), Offline: true}, err
		}
		return Listing{}, err
	}

	if order == store.OrderNewestFirst {
		s.snapshot(ctx, photos)
	} else {
		s.snapshot(ctx, sortPhotos(slices.Clone(photos), store.OrderNewestFirst))
	}
	return Listing{Photos: photos}, nil
}

// sortPhotos orders photos in place by timestamp, then id, matching ListAll.
func sortPhotos(photos []models.Photo, order store.Order) []models.Photo {
	slices.SortStableFunc(photos, func(a, b models.Photo) int {
		c := cmp.Or(strings.Compare(a.Timestamp, b.Timestamp), cmp.Compare(a.ID, b.ID))
		if order == store.OrderNewestFirst {
			return -c
		}
		return c
	})
	return photos
}

// Search lists photos whose name contains query, ignoring case.
func (s *Service) Search(ctx context.Context, query string) (Listing, error) {
	listing, err := s.Photos(ctx)
	listing.Photos = FilterByName(listing.Photos, query)
	return listing, err
}

// Photo returns one photo.
func (s *Service) Photo(ctx context.Context, id int64) (*models.Photo, error) {
	return s.store.GetByID(ctx, id)
}

// Update changes a photo's name or location and refreshes the snapshot.
func (s *Service) Update(ctx context.Context, id int64, upd models.PhotoUpdate) (int64, error) {
	n, err := s.store.Update(ctx, id, upd)
	if err != nil {
		return 0, err
	}
	s.refreshCache(ctx)
	return n, nil
}

// Delete removes a photo and evicts it from the snapshot.
func (s *Service) Delete(ctx context.Context, id int64) (int64, error) {
	n, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.Evict(ctx, id); err != nil {
			s.log.Warn("cache evict failed", zap.Int64("id", id), zap.Error(err))
		}
	}
	return n, nil
}

// Count returns the number of stored photos.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}

// Stats summarizes the stored photos.
func (s *Service) Stats(ctx context.Context) (models.PhotoStats, error) {
	return s.store.Stats(ctx)
}

// Cached returns the snapshot as it currently stands. Diagnostics only.
func (s *Service) Cached(ctx context.Context) []models.Photo {
	if s.cache == nil {
		return []models.Photo{}
	}
	return s.cache.Read(ctx)
}

// refreshCache re-reads the store and replaces the snapshot. The store
// mutation already happened, so failures are only logged.
func (s *Service) refreshCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	photos, err := s.store.ListAll(ctx, store.OrderNewestFirst)
	if err != nil {
		s.log.Warn("cache refresh skipped, list failed", zap.Error(err))
		return
	}
	s.snapshot(ctx, photos)
}

func (s *Service) snapshot(ctx context.Context, photos []models.Photo) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Snapshot(ctx, photos); err != nil {
		s.log.Warn("cache snapshot failed", zap.Error(err))
	}
}

// FilterByName keeps photos whose name contains query, ignoring case.
// An empty query keeps everything.
func FilterByName(photos []models.Photo, query string) []models.Photo {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return photos
	}
	out := make([]models.Photo, 0, len(photos))
	for _, p := range photos {
		if strings.Contains(strings.ToLower(p.Label()), q) {
			out = append(out, p)
		}
	}
	return out
}

// MapURL builds the external map link for a geotagged photo.
func MapURL(p models.Photo) (string, error) {
	if !p.HasLocation() {
		return "", fmt.Errorf("%w: id %d", ErrNoLocation, p.ID)
	}
	return mapSearchURL +
		strconv.FormatFloat(*p.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(*p.Longitude, 'f', -1, 64), nil
}

// CaptureTimestamp formats t the way captured photos are stamped.
func CaptureTimestamp(t time.Time) string {
	return t.UTC().Format(captureLayout)
}

// DefaultName derives a photo name from its timestamp's date part.
func DefaultName(timestamp string) string {
	date := timestamp
	if len(date) > 10 {
		date = date[:10]
	}
	return "Photo_" + date
}
