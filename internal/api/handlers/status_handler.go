package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/commercekit/skusync/internal/service"
	"github.com/gin-gonic/gin"
)

type StatusHandler struct {
	service *service.StatusService
}

func NewStatusHandler(service *service.StatusService) *StatusHandler {
	return &StatusHandler{service: service}
}

func (h *StatusHandler) GetRuns(c *gin.Context) {
	limit := 20
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && v > 0 {
		limit = v
	}

	runs, err := h.service.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch runs", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

func (h *StatusHandler) GetShortages(c *gin.Context) {
	shortages, err := h.service.LatestShortages(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch shortages", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"shortages": shortages, "count": len(shortages)})
}

func (h *StatusHandler) GetPreview(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sku code is required"})
		return
	}

	preview, err := h.service.PreviewAllocation(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrSKUNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown sku", "code": code})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build preview", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, preview)
}
