package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalStore keeps uploaded image bytes under a directory on the host, for
// deployments without an object store. Records remember the absolute path.
type LocalStore struct {
	dir string
	log *zap.Logger
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string, logger *zap.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", abs, err)
	}
	return &LocalStore{dir: abs, log: logger.Named("uploads")}, nil
}

// Put writes reader to dir/objectName and returns the absolute file path.
func (l *LocalStore) Put(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (string, error) {
	dst, err := l.resolve(objectName)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("put %s: %w", objectName, err)
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("put %s: %w", objectName, err)
	}
	n, err := io.Copy(f, reader)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("put %s: %w", objectName, err)
	}
	l.log.Debug("file stored", zap.String("path", dst), zap.Int64("size", n))
	return dst, nil
}

// Remove deletes a file previously returned by Put, given either the object
// name or the absolute path. Missing files are not an error.
func (l *LocalStore) Remove(_ context.Context, objectName string) error {
	dst, err := l.resolve(objectName)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Owns reports whether ref is a file path handed out by Put.
func (l *LocalStore) Owns(ref string) bool {
	if !filepath.IsAbs(ref) {
		return false
	}
	p, err := l.resolve(ref)
	return err == nil && strings.HasPrefix(p, filepath.Join(l.dir, UploadPrefix)+string(filepath.Separator))
}

// Resolve maps a reference returned by Put back to its file, refusing
// anything outside the upload directory.
func (l *LocalStore) Resolve(objectName string) (string, error) {
	return l.resolve(objectName)
}

func (l *LocalStore) resolve(objectName string) (string, error) {
	p := objectName
	if !filepath.IsAbs(p) {
		p = filepath.Join(l.dir, filepath.FromSlash(objectName))
	}
	p = filepath.Clean(p)
	if p != l.dir && !strings.HasPrefix(p, l.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("object %q escapes upload dir", objectName)
	}
	return p, nil
}
