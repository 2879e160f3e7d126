package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/scenariolabs/imagevault/internal/metrics"
	"github.com/scenariolabs/imagevault/internal/middleware"
	"github.com/scenariolabs/imagevault/internal/repository"
	"github.com/scenariolabs/imagevault/internal/services"

	"github.com/gin-gonic/gin"
)

type downloadFileController struct{ svc services.ImageService }

func NewDownloadFileController(svc services.ImageService) *downloadFileController {
	return &downloadFileController{svc: svc}
}

// Handle streams an image file to a caller holding a download token. The
// token's scope is checked against the environment the image actually
// belongs to, not anything the caller claims.
func (h *downloadFileController) Handle(c *gin.Context) {
	fileName := c.Param("fileName")

	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": http.StatusText(http.StatusUnauthorized)})
		return
	}

	img, rc, size, err := h.svc.OpenFile(c.Request.Context(), fileName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer rc.Close()

	if !claims.MatchesEnvironment(img.EnvironmentID) {
		c.JSON(http.StatusForbidden, gin.H{"error": http.StatusText(http.StatusForbidden)})
		return
	}
	if claims.ResourceName != "" && !claims.MatchesResource(fileName) {
		c.JSON(http.StatusForbidden, gin.H{"error": http.StatusText(http.StatusForbidden)})
		return
	}

	metrics.ImageDownloadsTotal.WithLabelValues("file").Inc()
	c.Header("Content-Disposition", "inline; filename="+strconv.Quote(img.FileName))
	c.DataFromReader(http.StatusOK, size, img.ContentType, rc, nil)
}
