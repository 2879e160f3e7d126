package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/scenariolabs/imagevault/internal/repository"
	"github.com/scenariolabs/imagevault/internal/services"

	"github.com/gin-gonic/gin"
)

type deleteImageController struct{ svc services.ImageService }

func NewDeleteImageController(svc services.ImageService) *deleteImageController {
	return &deleteImageController{svc: svc}
}

func (h *deleteImageController) Handle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'id'"})
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
