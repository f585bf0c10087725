package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"photogallery/gallery"
	"photogallery/models"
	"photogallery/pkg/response"
	"photogallery/store"
)

// PhotoController exposes the gallery service over HTTP.
type PhotoController struct {
	svc   *gallery.Service
	blobs BlobStore
	log   *zap.Logger
}

// NewPhotoController builds the controller. blobs may be nil, in which case
// the upload route answers 503.
func NewPhotoController(svc *gallery.Service, blobs BlobStore, logger *zap.Logger) *PhotoController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PhotoController{svc: svc, blobs: blobs, log: logger.Named("http")}
}

func (h *PhotoController) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", h.health)

	p := r.Group("/photos")
	p.GET("", h.list)
	p.GET("/cached", h.cached)
	p.GET("/stats", h.stats)
	p.GET("/:id", h.get)
	p.GET("/:id/map", h.mapLink)
	p.GET("/:id/file", h.file)
	p.POST("", h.create)
	p.POST("/upload", h.upload)
	p.PATCH("/:id", h.update)
	p.DELETE("/:id", h.delete)
}

func (h *PhotoController) health(c *gin.Context) {
	n, err := h.svc.Count(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"ok": 1, "photos": n})
}

// list answers from the cached snapshot, flagged offline, when the store is down.
func (h *PhotoController) list(c *gin.Context) {
	listing, err := h.svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil && !listing.Offline {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *PhotoController) cached(c *gin.Context) {
	response.OK(c, h.svc.Cached(c.Request.Context()))
}

func (h *PhotoController) get(c *gin.Context) {
	id, ok := photoID(c)
	if !ok {
		return
	}
	photo, err := h.svc.Photo(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, photo)
}

func (h *PhotoController) mapLink(c *gin.Context) {
	id, ok := photoID(c)
	if !ok {
		return
	}
	photo, err := h.svc.Photo(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	url, err := gallery.MapURL(*photo)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"url": url})
}

func (h *PhotoController) create(c *gin.Context) {
	var input models.PhotoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, err := h.svc.Create(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, gin.H{"id": id})
}

func (h *PhotoController) update(c *gin.Context) {
	id, ok := photoID(c)
	if !ok {
		return
	}
	var upd models.PhotoUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	n, err := h.svc.Update(c.Request.Context(), id, upd)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"affected": n})
}

// delete removes the record, then the uploaded bytes behind it. The record
// is authoritative, so a failed blob removal is only logged.
func (h *PhotoController) delete(c *gin.Context) {
	id, ok := photoID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var ref string
	if h.blobs != nil {
		if photo, err := h.svc.Photo(ctx, id); err == nil && h.blobs.Owns(photo.FilePath) {
			ref = photo.FilePath
		}
	}

	n, err := h.svc.Delete(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if ref != "" {
		if err := h.blobs.Remove(context.WithoutCancel(ctx), ref); err != nil {
			h.log.Warn("remove upload failed", zap.Int64("id", id), zap.String("ref", ref), zap.Error(err))
		}
	}
	response.OK(c, gin.H{"affected": n})
}

func photoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid photo id")
		return 0, false
	}
	return id, true
}

func (h *PhotoController) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, store.ErrValidation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, store.ErrNotFound):
		response.NotFoundMsg(c, err.Error())
	case errors.Is(err, gallery.ErrNoLocation):
		response.UnprocessableEntity(c, err.Error())
	case errors.Is(err, store.ErrStoreUnavailable):
		h.log.Error("store unavailable", zap.Error(err))
		response.ServiceUnavailable(c, "photo store unavailable")
	default:
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.InternalError(c)
	}
}
