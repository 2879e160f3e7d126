package controllers

import (
	"crypto/subtle"
	"net/http"

	"github.com/scenariolabs/imagevault/internal/metrics"
	"github.com/scenariolabs/imagevault/pkg/token"

	"github.com/gin-gonic/gin"
)

type loginEditController struct {
	issuer      *token.Issuer
	loginSecret string
}

func NewLoginEditController(issuer *token.Issuer, loginSecret string) *loginEditController {
	return &loginEditController{issuer: issuer, loginSecret: loginSecret}
}

type loginEditReq struct {
	SecretKey string `json:"secretKey" binding:"required"`
}

func (h *loginEditController) Handle(c *gin.Context) {
	var req loginEditReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if !secretMatches(req.SecretKey, h.loginSecret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	tok, err := h.issuer.IssueEditToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	metrics.TokensIssuedTotal.WithLabelValues(string(token.KindEdit)).Inc()
	c.JSON(http.StatusOK, gin.H{"token": tok})
}

func secretMatches(given, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(expected)) == 1
}
