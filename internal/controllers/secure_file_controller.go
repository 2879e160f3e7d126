package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/scenariolabs/imagevault/internal/metrics"
	"github.com/scenariolabs/imagevault/internal/repository"
	"github.com/scenariolabs/imagevault/internal/services"
	"github.com/scenariolabs/imagevault/pkg/token"

	"github.com/gin-gonic/gin"
)

type secureFileController struct {
	svc       services.ImageService
	validator *token.Validator
}

func NewSecureFileController(svc services.ImageService, validator *token.Validator) *secureFileController {
	return &secureFileController{svc: svc, validator: validator}
}

// Handle serves an image through a signed URL. The token travels as a query
// parameter so the URL works in plain <img> tags and redirects, with no
// Authorization header involved.
func (h *secureFileController) Handle(c *gin.Context) {
	envID, err := strconv.ParseInt(c.Param("environmentId"), 10, 64)
	if err != nil || envID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'environmentId'"})
		return
	}
	fileName := c.Param("fileName")
	raw := c.Query("token")
	if raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	dec := h.validator.Authorize(raw, token.PermissionDownload,
		token.WithEnvironment(envID),
		token.WithResource(fileName),
	)
	if dec.Allowed {
		metrics.AuthorizeDecisionsTotal.WithLabelValues("allow", "").Inc()
	} else {
		metrics.AuthorizeDecisionsTotal.WithLabelValues("deny", string(dec.Reason)).Inc()
		status := dec.Status()
		c.JSON(status, gin.H{"error": http.StatusText(status)})
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

	if img.EnvironmentID != envID {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}

	metrics.ImageDownloadsTotal.WithLabelValues("secure").Inc()
	c.Header("Content-Disposition", "inline; filename="+strconv.Quote(img.FileName))
	c.DataFromReader(http.StatusOK, size, img.ContentType, rc, nil)
}
