package controllers

import (
	"github.com/gin-gonic/gin"

	"photogallery/pkg/response"
)

// stats reports totals and the capture time range, plus the size of the
// cached snapshot so a stale mirror is visible.
func (h *PhotoController) stats(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := h.svc.Stats(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{
		"total":     stats.Total,
		"geotagged": stats.Geotagged,
		"oldest":    stats.Oldest,
		"newest":    stats.Newest,
		"cached":    len(h.svc.Cached(ctx)),
	})
}
