package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"photogallery/gallery"
	"photogallery/models"
	"photogallery/pkg/response"
	"photogallery/services"
)

// BlobStore holds uploaded image bytes. Put returns the reference stored as
// the photo's filePath; Owns tells those references apart from paths
// recorded by other clients.
type BlobStore interface {
	Put(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, objectName string) error
	Owns(ref string) bool
}

// presigner is implemented by blob stores that hand out direct download links.
type presigner interface {
	PresignedGet(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// resolver is implemented by blob stores that keep files on this host.
type resolver interface {
	Resolve(objectName string) (string, error)
}

const downloadLinkExpiry = 15 * time.Minute

// upload stores the multipart "file" and records it as a photo. The form may
// carry timestamp, latitude, longitude and name; timestamp and name default
// the way captures do.
func (h *PhotoController) upload(c *gin.Context) {
	if h.blobs == nil {
		response.ServiceUnavailable(c, "uploads are not configured")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}

	input, err := uploadInput(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	src, err := file.Open()
	if err != nil {
		response.BadRequest(c, "could not open file")
		return
	}
	defer src.Close()

	ctx := c.Request.Context()
	objectName := services.UploadPrefix + objectFileName(file.Filename)
	ref, err := h.blobs.Put(ctx, objectName, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		h.fail(c, fmt.Errorf("store upload: %w", err))
		return
	}
	input.FilePath = ref

	id, err := h.svc.Create(ctx, input)
	if err != nil {
		if rmErr := h.blobs.Remove(context.WithoutCancel(ctx), ref); rmErr != nil {
			h.log.Warn("orphaned upload", zap.String("ref", ref), zap.Error(rmErr))
		}
		h.fail(c, err)
		return
	}

	h.log.Info("photo uploaded", zap.Int64("id", id), zap.String("ref", ref), zap.Int64("size", file.Size))
	response.Created(c, gin.H{"id": id, "filePath": ref})
}

func uploadInput(c *gin.Context) (models.PhotoInput, error) {
	var in models.PhotoInput

	in.Timestamp = strings.TrimSpace(c.PostForm("timestamp"))
	if in.Timestamp == "" {
		in.Timestamp = gallery.CaptureTimestamp(time.Now())
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = gallery.DefaultName(in.Timestamp)
	}
	in.Name = &name

	var err error
	if in.Latitude, err = formFloat(c, "latitude"); err != nil {
		return in, err
	}
	if in.Longitude, err = formFloat(c, "longitude"); err != nil {
		return in, err
	}
	return in, nil
}

func formFloat(c *gin.Context, key string) (*float64, error) {
	raw := strings.TrimSpace(c.PostForm(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &v, nil
}

// objectFileName generates a collision-resistant name that keeps the
// original extension.
func objectFileName(original string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(original)))
	if ext == "" || len(ext) > 10 {
		ext = ".dat"
	}
	return uuid.NewString() + ext
}

// file serves the image bytes behind a photo: a redirect to a presigned link
// for object storage, the file itself for the uploads directory. References
// the blob store does not own are not served.
func (h *PhotoController) file(c *gin.Context) {
	id, ok := photoID(c)
	if !ok {
		return
	}
	photo, err := h.svc.Photo(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	switch blobs := h.blobs.(type) {
	case presigner:
		url, err := blobs.PresignedGet(c.Request.Context(), photo.FilePath, downloadLinkExpiry)
		if err != nil {
			h.fail(c, fmt.Errorf("presign %s: %w", photo.FilePath, err))
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, url)
	case resolver:
		path, err := blobs.Resolve(photo.FilePath)
		if err != nil {
			response.NotFoundMsg(c, "image file not available")
			return
		}
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			response.NotFoundMsg(c, "image file not available")
			return
		}
		c.File(path)
	default:
		response.NotFoundMsg(c, "image file not available")
	}
}
