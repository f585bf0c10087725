// Package store persists photo records in the gallery's embedded SQLite
// database. It is the source of truth for every other component.
package store

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"photogallery/database"
	"photogallery/models"
)

// Order selects the listing order of ListAll.
type Order int

const (
	// OrderNewestFirst sorts by timestamp descending, newest id first on ties.
	OrderNewestFirst Order = iota
	// OrderOldestFirst sorts by timestamp ascending, oldest id first on ties.
	OrderOldestFirst
)

// Store owns the images table. Construct it once and share the pointer.
type Store struct {
	path string
	opts database.Options
	log  *zap.Logger
	db   *gorm.DB
}

// New returns a store for the database file at path. Nothing is opened
// until Initialize.
func New(path string, opts database.Options, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, opts: opts, log: logger.Named("store")}
}

// Initialize opens the database and makes sure the images table exists.
// Calling it again re-checks the schema on the already open handle.
func (s *Store) Initialize(ctx context.Context) error {
	if s.db == nil {
		db, err := database.Open(s.path, s.opts)
		if err != nil {
			return unavailable("open "+s.path, err)
		}
		s.db = db
	}

	if err := ensureSchema(s.db.WithContext(context.WithoutCancel(ctx))); err != nil {
		_ = database.Close(s.db)
		s.db = nil
		return unavailable("apply schema", err)
	}

	s.log.Info("database initialized", zap.String("path", s.path))
	return nil
}

// DB exposes the open handle so side tables can share the same file.
// It is nil before Initialize.
func (s *Store) DB() *gorm.DB { return s.db }

// Close releases the database. The store must be initialized again before reuse.
func (s *Store) Close() error {
	err := database.Close(s.db)
	s.db = nil
	return err
}

// conn returns a session bound to ctx's values but not to its cancellation:
// an issued statement always runs to completion.
func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	if s.db == nil {
		return nil, unavailable("database not initialized", nil)
	}
	return s.db.WithContext(context.WithoutCancel(ctx)), nil
}

// Create validates in and inserts it, returning the assigned id. Every field
// is stored exactly as given.
func (s *Store) Create(ctx context.Context, in models.PhotoInput) (int64, error) {
	if err := validateInput(in); err != nil {
		return 0, err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}

	photo := models.Photo{
		FilePath:  in.FilePath,
		Timestamp: in.Timestamp,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Name:      in.Name,
	}
	if err := db.Create(&photo).Error; err != nil {
		s.log.Error("insert photo failed", zap.String("filePath", photo.FilePath), zap.Error(err))
		return 0, wrap("create photo", err)
	}

	s.log.Debug("photo inserted", zap.Int64("id", photo.ID))
	return photo.ID, nil
}

// ListAll returns every photo in the requested order. An empty table yields
// an empty, non-nil slice.
func (s *Store) ListAll(ctx context.Context, order Order) ([]models.Photo, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	q := db.Order("timestamp DESC").Order("id DESC")
	if order == OrderOldestFirst {
		q = db.Order("timestamp ASC").Order("id ASC")
	}

	photos := make([]models.Photo, 0)
	if err := q.Find(&photos).Error; err != nil {
		return nil, wrap("list photos", err)
	}
	if photos == nil {
		photos = []models.Photo{}
	}

	s.log.Debug("photos listed", zap.Int("count", len(photos)))
	return photos, nil
}

// GetByID returns the photo with the given id or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id int64) (*models.Photo, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var photo models.Photo
	if err := db.Where("id = ?", id).Take(&photo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(id)
		}
		return nil, wrap("get photo", err)
	}
	return &photo, nil
}

// Update applies the non-nil fields of upd to one photo and returns the
// number of rows changed.
func (s *Store) Update(ctx context.Context, id int64, upd models.PhotoUpdate) (int64, error) {
	if err := validateUpdate(upd); err != nil {
		return 0, err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}

	updates := map[string]interface{}{}
	if upd.Name != nil {
		updates["name"] = *upd.Name
	}
	switch {
	case upd.ClearLocation:
		updates["latitude"] = nil
		updates["longitude"] = nil
	case upd.Latitude != nil:
		updates["latitude"] = *upd.Latitude
		updates["longitude"] = *upd.Longitude
	}

	result := db.Model(&models.Photo{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return 0, wrap("update photo", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, notFound(id)
	}

	s.log.Debug("photo updated", zap.Int64("id", id))
	return result.RowsAffected, nil
}

// DeleteByID removes one photo and returns the number of rows deleted.
func (s *Store) DeleteByID(ctx context.Context, id int64) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}

	result := db.Where("id = ?", id).Delete(&models.Photo{})
	if result.Error != nil {
		return 0, wrap("delete photo", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, notFound(id)
	}

	s.log.Info("photo deleted", zap.Int64("id", id))
	return result.RowsAffected, nil
}

// Count returns the number of stored photos.
func (s *Store) Count(ctx context.Context) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := db.Model(&models.Photo{}).Count(&n).Error; err != nil {
		return 0, wrap("count photos", err)
	}
	return n, nil
}

// Stats summarizes the stored photos in one aggregate query.
func (s *Store) Stats(ctx context.Context) (models.PhotoStats, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return models.PhotoStats{}, err
	}

	var row struct {
		Total     int64
		Geotagged int64
		Oldest    *string
		Newest    *string
	}
	err = db.Model(&models.Photo{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN latitude IS NOT NULL AND longitude IS NOT NULL THEN 1 ELSE 0 END), 0) AS geotagged,
			MIN(timestamp) AS oldest,
			MAX(timestamp) AS newest`).
		Scan(&row).Error
	if err != nil {
		return models.PhotoStats{}, wrap("photo stats", err)
	}

	stats := models.PhotoStats{Total: row.Total, Geotagged: row.Geotagged}
	if row.Oldest != nil {
		stats.Oldest = *row.Oldest
	}
	if row.Newest != nil {
		stats.Newest = *row.Newest
	}
	return stats, nil
}
