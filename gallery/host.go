package gallery

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"photogallery/models"
)

// FileCamera "captures" an image file that already exists on disk, for
// hosts without a real camera such as the CLI.
type FileCamera struct {
	Path string
}

func (c FileCamera) RequestPermission(context.Context) (bool, error) { return true, nil }

func (c FileCamera) Capture(context.Context) (Capture, error) {
	if c.Path == "" {
		return Capture{}, ErrCaptureCanceled
	}
	abs, err := filepath.Abs(c.Path)
	if err != nil {
		return Capture{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Capture{}, err
	}
	if info.IsDir() {
		return Capture{}, fmt.Errorf("%s is a directory", abs)
	}
	return Capture{URI: abs}, nil
}

// StaticLocator reports a fixed position, or a denial when Position is nil.
type StaticLocator struct {
	Position *models.Coordinates
}

func (l StaticLocator) RequestPermission(context.Context) (bool, error) {
	return l.Position != nil, nil
}

func (l StaticLocator) CurrentPosition(context.Context) (models.Coordinates, error) {
	if l.Position == nil {
		return models.Coordinates{}, ErrPermissionDenied
	}
	return *l.Position, nil
}

// WriterLinker prints links instead of opening them.
type WriterLinker struct {
	W io.Writer
}

func (l WriterLinker) Open(_ context.Context, url string) error {
	_, err := fmt.Fprintln(l.W, url)
	return err
}
