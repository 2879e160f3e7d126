package controllers

import (
	"net/http"
	"strconv"

	"github.com/scenariolabs/imagevault/internal/services"

	"github.com/gin-gonic/gin"
)

type deleteEnvironmentController struct{ svc services.ImageService }

func NewDeleteEnvironmentController(svc services.ImageService) *deleteEnvironmentController {
	return &deleteEnvironmentController{svc: svc}
}

func (h *deleteEnvironmentController) Handle(c *gin.Context) {
	envID, err := strconv.ParseInt(c.Param("environmentId"), 10, 64)
	if err != nil || envID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'environmentId'"})
		return
	}
	n, err := h.svc.DeleteAll(c.Request.Context(), envID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"environmentId": envID, "deleted": n})
}
