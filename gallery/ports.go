package gallery

import (
	"context"
	"errors"

	"photogallery/models"
	"photogallery/store"
)

var (
	// ErrCaptureCanceled is returned by a Camera when the user dismissed it.
	ErrCaptureCanceled = errors.New("capture canceled")
	// ErrPermissionDenied is returned by host capabilities the user refused.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNoPendingPhoto means SavePending ran without a captured draft.
	ErrNoPendingPhoto = errors.New("no pending photo")
	// ErrNoLocation means a map link was requested for a photo without coordinates.
	ErrNoLocation = errors.New("photo has no location")
)

// PhotoStore is the authoritative record store.
type PhotoStore interface {
	Initialize(ctx context.Context) error
	Create(ctx context.Context, in models.PhotoInput) (int64, error)
	ListAll(ctx context.Context, order store.Order) ([]models.Photo, error)
	GetByID(ctx context.Context, id int64) (*models.Photo, error)
	Update(ctx context.Context, id int64, upd models.PhotoUpdate) (int64, error)
	DeleteByID(ctx context.Context, id int64) (int64, error)
	Count(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (models.PhotoStats, error)
}

// Cache is the non-authoritative snapshot of the photo list.
type Cache interface {
	Snapshot(ctx context.Context, photos []models.Photo) error
	Read(ctx context.Context) []models.Photo
	Evict(ctx context.Context, id int64) error
}

// Capture is what a camera hands back: a reference to an image it stored.
type Capture struct {
	URI string
}

// Camera is the host's capture capability.
type Camera interface {
	RequestPermission(ctx context.Context) (bool, error)
	Capture(ctx context.Context) (Capture, error)
}

// Locator is the host's location capability.
type Locator interface {
	RequestPermission(ctx context.Context) (bool, error)
	CurrentPosition(ctx context.Context) (models.Coordinates, error)
}

// Linker opens external links such as a map view.
type Linker interface {
	Open(ctx context.Context, url string) error
}
