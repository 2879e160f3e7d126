package controllers

import (
	"net/http"
	"strconv"

	"github.com/scenariolabs/imagevault/internal/services"

	"github.com/gin-gonic/gin"
)

type listImagesController struct{ svc services.ImageService }

func NewListImagesController(svc services.ImageService) *listImagesController {
	return &listImagesController{svc: svc}
}

func (h *listImagesController) Handle(c *gin.Context) {
	envID, err := strconv.ParseInt(c.Param("environmentId"), 10, 64)
	if err != nil || envID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'environmentId'"})
		return
	}
	images, err := h.svc.List(c.Request.Context(), envID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"environmentId": envID, "images": images})
}
