package gallery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"photogallery/models"
)

// Draft is a captured photo that has not been saved yet.
type Draft struct {
	URI       string
	Timestamp string
	Location  *models.Coordinates
	Name      string
}

// Session is the view state of one interactive gallery: the loaded list,
// the pending capture, the search text and which view is showing.
// It is driven by one host and is not safe for concurrent use.
type Session struct {
	svc     *Service
	camera  Camera
	locator Locator
	linker  Linker
	now     func() time.Time
	log     *zap.Logger

	photos      []models.Photo
	offline     bool
	pending     *Draft
	showGallery bool
	search      string
	notices     []string
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithClock replaces time.Now for capture timestamps.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithLinker sets the capability used by OpenMap.
func WithLinker(l Linker) SessionOption {
	return func(s *Session) { s.linker = l }
}

// NewSession builds a session over svc. locator may be nil when the host
// has no location capability.
func NewSession(svc *Service, camera Camera, locator Locator, opts ...SessionOption) *Session {
	s := &Session{
		svc:     svc,
		camera:  camera,
		locator: locator,
		now:     time.Now,
		log:     svc.log.Named("session"),
		photos:  []models.Photo{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store, asks for permissions and loads the list.
// Permission denials become notices; only store failures are returned.
func (s *Session) Start(ctx context.Context) error {
	if err := s.svc.Setup(ctx); err != nil {
		return err
	}
	s.requestPermissions(ctx)
	return s.Refresh(ctx)
}

func (s *Session) requestPermissions(ctx context.Context) {
	if s.camera != nil {
		if ok, err := s.camera.RequestPermission(ctx); err != nil || !ok {
			s.notify("Camera access is required to take photos.")
		}
	}
	if s.locator != nil {
		if ok, err := s.locator.RequestPermission(ctx); err != nil || !ok {
			s.notify("Location access is required for tagging photos.")
		}
	}
}

// Refresh reloads the list. When the store is unreachable the cached
// snapshot is shown and the error is still returned.
func (s *Session) Refresh(ctx context.Context) error {
	listing, err := s.svc.Photos(ctx)
	if err != nil && !listing.Offline {
		return err
	}
	s.photos = listing.Photos
	s.offline = listing.Offline
	return err
}

// Capture asks the camera for a photo and turns it into the pending draft.
// A canceled capture leaves the session untouched and returns nil, nil.
func (s *Session) Capture(ctx context.Context) (*Draft, error) {
	if s.camera == nil {
		return nil, fmt.Errorf("capture: %w", ErrPermissionDenied)
	}
	shot, err := s.camera.Capture(ctx)
	if err != nil {
		if errors.Is(err, ErrCaptureCanceled) {
			return nil, nil
		}
		return nil, fmt.Errorf("capture: %w", err)
	}
	if shot.URI == "" {
		return nil, errors.New("capture: camera returned no image")
	}

	ts := CaptureTimestamp(s.now())
	draft := &Draft{
		URI:       shot.URI,
		Timestamp: ts,
		Location:  s.position(ctx),
		Name:      DefaultName(ts),
	}
	s.pending = draft
	return draft, nil
}

// position returns nil when location is unavailable or denied.
func (s *Session) position(ctx context.Context) *models.Coordinates {
	if s.locator == nil {
		return nil
	}
	c, err := s.locator.CurrentPosition(ctx)
	if err != nil {
		s.log.Info("capturing without location", zap.Error(err))
		return nil
	}
	return &c
}

// SavePending stores the pending draft, reloads the list and switches to
// the gallery view. The draft is kept when the store rejects it.
func (s *Session) SavePending(ctx context.Context) (int64, error) {
	if s.pending == nil {
		return 0, ErrNoPendingPhoto
	}

	d := s.pending
	name := d.Name
	in := models.PhotoInput{
		FilePath:  d.URI,
		Timestamp: d.Timestamp,
		Name:      &name,
	}
	if d.Location != nil {
		lat, lon := d.Location.Latitude, d.Location.Longitude
		in.Latitude, in.Longitude = &lat, &lon
	}

	id, err := s.svc.Create(ctx, in)
	if err != nil {
		return 0, err
	}

	s.pending = nil
	s.showGallery = true
	s.notify("Photo saved successfully")
	if err := s.Refresh(ctx); err != nil {
		s.notify("Failed to load images")
	}
	return id, nil
}

// Discard drops the pending draft.
func (s *Session) Discard() { s.pending = nil }

// Delete removes a photo and reloads the list.
func (s *Session) Delete(ctx context.Context, id int64) error {
	if _, err := s.svc.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.Refresh(ctx); err != nil {
		s.notify("Failed to load images")
	}
	return nil
}

// OpenMap opens the map view for a loaded photo.
func (s *Session) OpenMap(ctx context.Context, id int64) error {
	if s.linker == nil {
		return errors.New("open map: no link capability")
	}
	photo, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	url, err := MapURL(*photo)
	if err != nil {
		return err
	}
	if err := s.linker.Open(ctx, url); err != nil {
		return fmt.Errorf("open map: %w", err)
	}
	return nil
}

func (s *Session) find(ctx context.Context, id int64) (*models.Photo, error) {
	for i := range s.photos {
		if s.photos[i].ID == id {
			return &s.photos[i], nil
		}
	}
	return s.svc.Photo(ctx, id)
}

// SetSearch sets the name filter applied by Visible.
func (s *Session) SetSearch(text string) { s.search = text }

// Visible returns the loaded photos that match the search text.
func (s *Session) Visible() []models.Photo { return FilterByName(s.photos, s.search) }

// ToggleGallery flips between the capture and gallery views and reports
// whether the gallery is now showing.
func (s *Session) ToggleGallery() bool {
	s.showGallery = !s.showGallery
	return s.showGallery
}

func (s *Session) ShowingGallery() bool { return s.showGallery }
func (s *Session) Pending() *Draft      { return s.pending }
func (s *Session) Offline() bool        { return s.offline }

// Notices drains the messages meant for the user.
func (s *Session) Notices() []string {
	n := s.notices
	s.notices = nil
	return n
}

func (s *Session) notify(msg string) {
	s.notices = append(s.notices, msg)
}
