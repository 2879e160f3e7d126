package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/scenariolabs/imagevault/internal/repository"
	"github.com/scenariolabs/imagevault/internal/services"

	"github.com/gin-gonic/gin"
)

type getImageController struct{ svc services.ImageService }

func NewGetImageController(svc services.ImageService) *getImageController {
	return &getImageController{svc: svc}
}

func (h *getImageController) Handle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'id'"})
		return
	}
	img, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, img)
}
