package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/scenariolabs/imagevault/internal/metrics"
	"github.com/scenariolabs/imagevault/internal/middleware"
	"github.com/scenariolabs/imagevault/internal/repository"
	"github.com/scenariolabs/imagevault/internal/services"
	"github.com/scenariolabs/imagevault/pkg/token"

	"github.com/gin-gonic/gin"
)

type tempURLController struct {
	svc           services.ImageService
	issuer        *token.Issuer
	publicBaseURL string
	defaultTTL    time.Duration
}

func NewTempURLController(svc services.ImageService, issuer *token.Issuer, publicBaseURL string, defaultTTL time.Duration) *tempURLController {
	if defaultTTL <= 0 {
		defaultTTL = token.DefaultResourceTTL
	}
	return &tempURLController{svc: svc, issuer: issuer, publicBaseURL: publicBaseURL, defaultTTL: defaultTTL}
}

type tempURLReq struct {
	EnvironmentID     int64  `json:"environmentId" binding:"required"`
	FileName          string `json:"fileName" binding:"required"`
	ExpirationMinutes int    `json:"expirationMinutes"`
}

func (h *tempURLController) Handle(c *gin.Context) {
	var req tempURLReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if req.ExpirationMinutes < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'expirationMinutes'"})
		return
	}

	claims, ok := middleware.ClaimsFrom(c)
	if !ok || !claims.MatchesEnvironment(req.EnvironmentID) {
		c.JSON(http.StatusForbidden, gin.H{"error": http.StatusText(http.StatusForbidden)})
		return
	}

	img, err := h.svc.GetByFileName(c.Request.Context(), req.FileName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if img.EnvironmentID != req.EnvironmentID {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}

	ttl := h.defaultTTL
	if req.ExpirationMinutes > 0 {
		ttl = time.Duration(req.ExpirationMinutes) * time.Minute
	}
	tok, err := h.issuer.IssueResourceToken(req.EnvironmentID, req.FileName, ttl)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	metrics.TokensIssuedTotal.WithLabelValues(string(token.KindImageDownload)).Inc()

	base := strings.TrimRight(h.publicBaseURL, "/")
	signed := fmt.Sprintf("%s/v1/images/secure/%d/%s?token=%s",
		base, req.EnvironmentID, url.PathEscape(req.FileName), url.QueryEscape(tok))
	c.JSON(http.StatusOK, gin.H{
		"url":       signed,
		"token":     tok,
		"expiresIn": int(ttl.Seconds()),
	})
}
