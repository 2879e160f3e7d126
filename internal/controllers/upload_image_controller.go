package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/scenariolabs/imagevault/internal/repository"
	"github.com/scenariolabs/imagevault/internal/services"

	"github.com/gin-gonic/gin"
)

type uploadImageController struct {
	svc         services.ImageService
	maxFileSize int64
}

func NewUploadImageController(svc services.ImageService, maxFileSize int64) *uploadImageController {
	return &uploadImageController{svc: svc, maxFileSize: maxFileSize}
}

func (h *uploadImageController) Handle(c *gin.Context) {
	envID, err := strconv.ParseInt(c.PostForm("environmentId"), 10, 64)
	if err != nil || envID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'environmentId'"})
		return
	}
	imageName := c.PostForm("imageName")
	description := c.PostForm("description")

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing 'file' part"})
		return
	}
	if h.maxFileSize > 0 && fh.Size > h.maxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds maximum allowed size"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable 'file' part"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable 'file' part"})
		return
	}

	img, err := h.svc.Upload(c.Request.Context(), services.UploadRequest{
		EnvironmentID:    envID,
		ImageName:        imageName,
		OriginalFileName: fh.Filename,
		ContentType:      fh.Header.Get("Content-Type"),
		Description:      description,
		Data:             data,
	})
	if err != nil {
		c.JSON(uploadStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, img)
}

func uploadStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrNameTaken):
		return http.StatusConflict
	case errors.Is(err, services.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, services.ErrInvalidContentType),
		errors.Is(err, services.ErrEmptyFile),
		errors.Is(err, services.ErrNameRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
