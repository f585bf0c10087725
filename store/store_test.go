package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"

	"photogallery/database"
	"photogallery/models"
	"photogallery/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func ptr[T any](v T) *T { return &v }

type StoreSuite struct {
	suite.Suite
	ctx   context.Context
	path  string
	store *store.Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.path = filepath.Join(s.T().TempDir(), "gallery.db")
	s.store = store.New(s.path, database.Options{Silent: true}, nil)
	s.Require().NoError(s.store.Initialize(s.ctx))
}

func (s *StoreSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *StoreSuite) TestScenario_CreateListDelete() {
	in := models.PhotoInput{
		FilePath:  "img1.jpg",
		Timestamp: "2024-01-01T00:00:00Z",
		Latitude:  ptr(37.0),
		Longitude: ptr(-122.0),
		Name:      ptr("Photo_2024-01-01"),
	}

	id, err := s.store.Create(s.ctx, in)
	s.Require().NoError(err)
	s.Equal(int64(1), id)

	photos, err := s.store.ListAll(s.ctx, store.OrderNewestFirst)
	s.Require().NoError(err)
	want := []models.Photo{{
		ID:        1,
		FilePath:  "img1.jpg",
		Timestamp: "2024-01-01T00:00:00Z",
		Latitude:  ptr(37.0),
		Longitude: ptr(-122.0),
		Name:      ptr("Photo_2024-01-01"),
	}}
	if diff := cmp.Diff(want, photos); diff != "" {
		s.Failf("ListAll mismatch", "(-want +got):\n%s", diff)
	}

	affected, err := s.store.DeleteByID(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(int64(1), affected)

	photos, err = s.store.ListAll(s.ctx, store.OrderNewestFirst)
	s.Require().NoError(err)
	s.Empty(photos)

	_, err = s.store.GetByID(s.ctx, 1)
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *StoreSuite) TestCreateThenGetRoundTrip() {
	inputs := []models.PhotoInput{
		{FilePath: "a.jpg", Timestamp: "2024-03-01T10:00:00.000Z"},
		{FilePath: "b.jpg", Timestamp: "2024-03-02T10:00:00.000Z", Name: ptr("beach")},
		{FilePath: "c.jpg", Timestamp: "2024-03-03", Latitude: ptr(-33.86), Longitude: ptr(151.2)},
		{FilePath: "d.jpg", Timestamp: "2024-03-04", Latitude: ptr(0.0), Longitude: ptr(0.0), Name: ptr("")},
		{FilePath: " e.jpg ", Timestamp: "2024-03-05T00:00:00Z\n", Name: ptr("  padded  ")},
	}

	for _, in := range inputs {
		id, err := s.store.Create(s.ctx, in)
		s.Require().NoError(err)

		got, err := s.store.GetByID(s.ctx, id)
		s.Require().NoError(err)

		want := models.Photo{
			ID:        id,
			FilePath:  in.FilePath,
			Timestamp: in.Timestamp,
			Latitude:  in.Latitude,
			Longitude: in.Longitude,
			Name:      in.Name,
		}
		if diff := cmp.Diff(want, *got); diff != "" {
			s.Failf("round trip mismatch", "%s (-want +got):\n%s", in.FilePath, diff)
		}
	}
}

func (s *StoreSuite) TestCreateRejectsInvalidInput() {
	cases := []struct {
		name  string
		in    models.PhotoInput
		field string
	}{
		{"empty file path", models.PhotoInput{FilePath: "", Timestamp: "2024-01-01"}, "filePath"},
		{"blank file path", models.PhotoInput{FilePath: "   ", Timestamp: "2024-01-01"}, "filePath"},
		{"empty timestamp", models.PhotoInput{FilePath: "x.jpg"}, "timestamp"},
		{"latitude only", models.PhotoInput{FilePath: "x.jpg", Timestamp: "t", Latitude: ptr(1.0)}, "longitude"},
		{"longitude only", models.PhotoInput{FilePath: "x.jpg", Timestamp: "t", Longitude: ptr(1.0)}, "latitude"},
		{"latitude out of range", models.PhotoInput{FilePath: "x.jpg", Timestamp: "t", Latitude: ptr(91.0), Longitude: ptr(0.0)}, "latitude"},
		{"longitude out of range", models.PhotoInput{FilePath: "x.jpg", Timestamp: "t", Latitude: ptr(0.0), Longitude: ptr(-180.5)}, "longitude"},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.store.Create(s.ctx, tc.in)
			s.Require().ErrorIs(err, store.ErrValidation)

			var verr *store.ValidationError
			s.Require().True(errors.As(err, &verr))
			s.Equal(tc.field, verr.Field)
		})
	}

	n, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(n, "rejected input must not reach the table")
}

func (s *StoreSuite) TestListAllEmpty() {
	photos, err := s.store.ListAll(s.ctx, store.OrderNewestFirst)
	s.Require().NoError(err)
	s.NotNil(photos)
	s.Len(photos, 0)
}

func (s *StoreSuite) TestStats() {
	stats, err := s.store.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.PhotoStats{}, stats)

	inputs := []models.PhotoInput{
		{FilePath: "a.jpg", Timestamp: "2024-01-02T00:00:00Z", Latitude: ptr(1.0), Longitude: ptr(2.0)},
		{FilePath: "b.jpg", Timestamp: "2024-03-01T00:00:00Z"},
		{FilePath: "c.jpg", Timestamp: "2023-12-31T00:00:00Z", Latitude: ptr(-3.0), Longitude: ptr(4.0)},
	}
	for _, in := range inputs {
		_, err := s.store.Create(s.ctx, in)
		s.Require().NoError(err)
	}

	stats, err = s.store.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.PhotoStats{
		Total:     3,
		Geotagged: 2,
		Oldest:    "2023-12-31T00:00:00Z",
		Newest:    "2024-03-01T00:00:00Z",
	}, stats)
}

func (s *StoreSuite) TestListAllOrdering() {
	for _, ts := range []string{"2024-01-02T00:00:00Z", "2024-01-03T00:00:00Z", "2024-01-01T00:00:00Z"} {
		_, err := s.store.Create(s.ctx, models.PhotoInput{FilePath: ts + ".jpg", Timestamp: ts})
		s.Require().NoError(err)
	}

	newest, err := s.store.ListAll(s.ctx, store.OrderNewestFirst)
	s.Require().NoError(err)
	s.Equal([]string{"2024-01-03T00:00:00Z", "2024-01-02T00:00:00Z", "2024-01-01T00:00:00Z"}, timestamps(newest))

	oldest, err := s.store.ListAll(s.ctx, store.OrderOldestFirst)
	s.Require().NoError(err)
	s.Equal([]string{"2024-01-01T00:00:00Z", "2024-01-02T00:00:00Z", "2024-01-03T00:00:00Z"}, timestamps(oldest))
}

func (s *StoreSuite) TestMissingIDs() {
	_, err := s.store.GetByID(s.ctx, 42)
	s.ErrorIs(err, store.ErrNotFound)

	_, err = s.store.DeleteByID(s.ctx, 42)
	s.ErrorIs(err, store.ErrNotFound)

	_, err = s.store.Update(s.ctx, 42, models.PhotoUpdate{Name: ptr("x")})
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *StoreSuite) TestUpdate() {
	id, err := s.store.Create(s.ctx, models.PhotoInput{FilePath: "u.jpg", Timestamp: "2024-05-05", Name: ptr("old")})
	s.Require().NoError(err)

	affected, err := s.store.Update(s.ctx, id, models.PhotoUpdate{Latitude: ptr(48.85), Longitude: ptr(2.35)})
	s.Require().NoError(err)
	s.Equal(int64(1), affected)

	got, err := s.store.GetByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("old", got.Label())
	s.Require().True(got.HasLocation())
	s.InDelta(48.85, *got.Latitude, 1e-9)

	_, err = s.store.Update(s.ctx, id, models.PhotoUpdate{Name: ptr("new"), ClearLocation: true})
	s.Require().NoError(err)

	got, err = s.store.GetByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("new", got.Label())
	s.False(got.HasLocation())
	s.Equal("u.jpg", got.FilePath)
}

func (s *StoreSuite) TestUpdateRejectsInvalidFields() {
	id, err := s.store.Create(s.ctx, models.PhotoInput{FilePath: "u.jpg", Timestamp: "2024-05-05"})
	s.Require().NoError(err)

	for name, upd := range map[string]models.PhotoUpdate{
		"empty":         {},
		"partial":       {Latitude: ptr(1.0)},
		"clear and set": {ClearLocation: true, Latitude: ptr(1.0), Longitude: ptr(1.0)},
		"out of range":  {Latitude: ptr(-95.0), Longitude: ptr(1.0)},
	} {
		_, err := s.store.Update(s.ctx, id, upd)
		s.ErrorIs(err, store.ErrValidation, name)
	}
}

func (s *StoreSuite) TestInitializeIsIdempotent() {
	_, err := s.store.Create(s.ctx, models.PhotoInput{FilePath: "keep.jpg", Timestamp: "2024-01-01"})
	s.Require().NoError(err)

	s.Require().NoError(s.store.Initialize(s.ctx))

	// A second handle on the same file sees the existing table and row.
	other := store.New(s.path, database.Options{Silent: true}, nil)
	s.Require().NoError(other.Initialize(s.ctx))
	defer other.Close()

	n, err := other.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *StoreSuite) TestSchemaColumns() {
	type column struct {
		Name    string
		Type    string
		NotNull int
		PK      int
	}
	var cols []column
	s.Require().NoError(s.store.DB().Raw(
		"SELECT name, type, \"notnull\" AS not_null, pk FROM pragma_table_info('images')",
	).Scan(&cols).Error)

	want := []column{
		{"id", "INTEGER", 1, 1},
		{"filePath", "TEXT", 1, 0},
		{"timestamp", "TEXT", 1, 0},
		{"latitude", "REAL", 0, 0},
		{"longitude", "REAL", 0, 0},
		{"name", "TEXT", 0, 0},
	}
	if diff := cmp.Diff(want, cols); diff != "" {
		s.Failf("schema mismatch", "(-want +got):\n%s", diff)
	}

	var version int
	s.Require().NoError(s.store.DB().Raw("PRAGMA user_version").Scan(&version).Error)
	s.Equal(1, version)
}

func (s *StoreSuite) TestNewerSchemaIsRejected() {
	s.Require().NoError(s.store.DB().Exec("PRAGMA user_version = 7").Error)

	err := s.store.Initialize(s.ctx)
	s.ErrorIs(err, store.ErrStoreUnavailable)

	_, err = s.store.ListAll(s.ctx, store.OrderNewestFirst)
	s.ErrorIs(err, store.ErrStoreUnavailable, "a rejected file stays closed")
}

func TestOperationsBeforeInitialize(t *testing.T) {
	st := store.New(filepath.Join(t.TempDir(), "never.db"), database.Options{Silent: true}, nil)
	ctx := context.Background()

	_, err := st.Create(ctx, models.PhotoInput{FilePath: "a.jpg", Timestamp: "t"})
	if !errors.Is(err, store.ErrStoreUnavailable) {
		t.Fatalf("Create before Initialize: got %v", err)
	}
	if _, err := st.ListAll(ctx, store.OrderNewestFirst); !errors.Is(err, store.ErrStoreUnavailable) {
		t.Fatalf("ListAll before Initialize: got %v", err)
	}
	if _, err := st.DeleteByID(ctx, 1); !errors.Is(err, store.ErrStoreUnavailable) {
		t.Fatalf("DeleteByID before Initialize: got %v", err)
	}
}

func TestInitializeUnopenablePath(t *testing.T) {
	dir := t.TempDir()
	// The parent "directory" is a regular file, so the database cannot be created.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	st := store.New(filepath.Join(blocker, "gallery.db"), database.Options{Silent: true}, nil)
	if err := st.Initialize(context.Background()); !errors.Is(err, store.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func timestamps(photos []models.Photo) []string {
	out := make([]string, 0, len(photos))
	for _, p := range photos {
		out = append(out, p.Timestamp)
	}
	return out
}
