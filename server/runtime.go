package server

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"photogallery/config"
	"photogallery/controllers"
	"photogallery/database"
	"photogallery/gallery"
	"photogallery/mirror"
	"photogallery/services"
	"photogallery/store"
)

// Runtime holds the long-lived handles shared by the HTTP server and the CLI.
type Runtime struct {
	Store   *store.Store
	Service *gallery.Service

	cfg     *config.Config
	log     *zap.Logger
	closers []func() error
}

// New builds the store, the cache mirror and the gallery service without
// opening the store. A cache that cannot be reached is skipped; the
// snapshot is not authoritative.
func New(cfg *config.Config, logger *zap.Logger) *Runtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := database.Options{Verbose: cfg.Database.Verbose}

	rt := &Runtime{
		Store: store.New(cfg.Database.Path, opts, logger),
		cfg:   cfg,
		log:   logger,
	}
	rt.closers = append(rt.closers, rt.Store.Close)

	cache, err := rt.openCache(opts)
	if err != nil {
		logger.Warn("cache mirror disabled", zap.String("backend", cfg.Cache.Backend), zap.Error(err))
		cache = nil
	}
	rt.Service = gallery.NewService(rt.Store, cache, logger)
	return rt
}

// Open is New followed by store initialization.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	rt := New(cfg, logger)
	if err := rt.Service.Setup(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) openCache(opts database.Options) (gallery.Cache, error) {
	switch rt.cfg.Cache.Backend {
	case config.CacheNone:
		return nil, nil
	case config.CacheRedis:
		kv, err := mirror.ConnectRedis(rt.cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, kv.Close)
		return mirror.New(kv, rt.log), nil
	default:
		// Own handle on the same file so the snapshot stays readable
		// whatever state the store connection is in.
		db, err := database.Open(rt.cfg.Database.Path, opts)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() error { return database.Close(db) })
		kv, err := mirror.NewSQLiteKV(db)
		if err != nil {
			return nil, err
		}
		return mirror.New(kv, rt.log), nil
	}
}

// Blobs returns where uploaded bytes go: MinIO when an endpoint is
// configured, the uploads directory otherwise.
func (rt *Runtime) Blobs(ctx context.Context) (controllers.BlobStore, error) {
	if m := rt.cfg.Minio; m.Endpoint != "" {
		objects, err := services.NewObjectStore(ctx, services.MinioConfig{
			Endpoint:        m.Endpoint,
			AccessKeyID:     m.AccessKey,
			SecretAccessKey: m.SecretKey,
			UseSSL:          m.UseSSL,
			Bucket:          m.Bucket,
		}, rt.log)
		if err != nil {
			return nil, fmt.Errorf("object storage: %w", err)
		}
		return objects, nil
	}
	return services.NewLocalStore(rt.cfg.Uploads.Dir, rt.log)
}

// Close releases every handle in reverse order of opening.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
