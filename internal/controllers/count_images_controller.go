package controllers

import (
	"net/http"
	"strconv"

	"github.com/scenariolabs/imagevault/internal/services"

	"github.com/gin-gonic/gin"
)

type countImagesController struct{ svc services.ImageService }

func NewCountImagesController(svc services.ImageService) *countImagesController {
	return &countImagesController{svc: svc}
}

func (h *countImagesController) Handle(c *gin.Context) {
	envID, err := strconv.ParseInt(c.Param("environmentId"), 10, 64)
	if err != nil || envID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'environmentId'"})
		return
	}
	n, err := h.svc.Count(c.Request.Context(), envID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"environmentId": envID, "count": n})
}
