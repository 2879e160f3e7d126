package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/scenariolabs/imagevault/internal/repository"
	"github.com/scenariolabs/imagevault/internal/services"

	"github.com/gin-gonic/gin"
)

type getImageByNameController struct{ svc services.ImageService }

func NewGetImageByNameController(svc services.ImageService) *getImageByNameController {
	return &getImageByNameController{svc: svc}
}

func (h *getImageByNameController) Handle(c *gin.Context) {
	envID, err := strconv.ParseInt(c.Param("environmentId"), 10, 64)
	if err != nil || envID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'environmentId'"})
		return
	}
	name := c.Param("imageName")
	img, err := h.svc.GetByName(c.Request.Context(), envID, name)
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
