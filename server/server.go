package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"photogallery/config"
	"photogallery/controllers"
	"photogallery/gallery"
	"photogallery/middleware"
	"photogallery/pkg/response"
)

const shutdownTimeout = 10 * time.Second

// NewRouter mounts the photo routes on a gin engine with recovery, request
// ids and request logging.
func NewRouter(svc *gallery.Service, blobs controllers.BlobStore, logger *zap.Logger, dev bool) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dev {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Named("access")))

	router.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	router.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	controllers.NewPhotoController(svc, blobs, logger).RegisterRoutes(router)
	return router
}

// Serve runs the HTTP API until ctx is canceled, then shuts down gracefully.
func Serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	rt, err := Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	blobs, err := rt.Blobs(ctx)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(rt.Service, blobs, logger, cfg.IsDev()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("database", cfg.Database.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}
