package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/scenariolabs/imagevault/internal/repository"
	"github.com/scenariolabs/imagevault/internal/services"

	"github.com/gin-gonic/gin"
)

type renameImageController struct{ svc services.ImageService }

func NewRenameImageController(svc services.ImageService) *renameImageController {
	return &renameImageController{svc: svc}
}

type renameImageReq struct {
	ImageName string `json:"imageName" binding:"required"`
}

func (h *renameImageController) Handle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'id'"})
		return
	}
	var req renameImageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	img, err := h.svc.Rename(c.Request.Context(), id, req.ImageName)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		case errors.Is(err, repository.ErrNameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrNameRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, img)
}
