package controllers

import (
	"net/http"

	"github.com/scenariolabs/imagevault/internal/metrics"
	"github.com/scenariolabs/imagevault/pkg/token"

	"github.com/gin-gonic/gin"
)

type loginDownloadController struct {
	issuer      *token.Issuer
	loginSecret string
}

func NewLoginDownloadController(issuer *token.Issuer, loginSecret string) *loginDownloadController {
	return &loginDownloadController{issuer: issuer, loginSecret: loginSecret}
}

type loginDownloadReq struct {
	SecretKey     string `json:"secretKey" binding:"required"`
	EnvironmentID int64  `json:"environmentId" binding:"required"`
}

func (h *loginDownloadController) Handle(c *gin.Context) {
	var req loginDownloadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if !secretMatches(req.SecretKey, h.loginSecret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	tok, err := h.issuer.IssueEnvironmentDownloadToken(req.EnvironmentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	metrics.TokensIssuedTotal.WithLabelValues(string(token.KindEnvironmentDownload)).Inc()
	c.JSON(http.StatusOK, gin.H{"token": tok, "environmentId": req.EnvironmentID})
}
