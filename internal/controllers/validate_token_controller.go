package controllers

import (
	"net/http"

	"github.com/scenariolabs/imagevault/pkg/token"

	"github.com/gin-gonic/gin"
)

type validateTokenController struct {
	validator *token.Validator
}

func NewValidateTokenController(validator *token.Validator) *validateTokenController {
	return &validateTokenController{validator: validator}
}

type validateTokenReq struct {
	Token string `json:"token" binding:"required"`
}

func (h *validateTokenController) Handle(c *gin.Context) {
	var req validateTokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	if !h.validator.IsValid(req.Token) {
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}
	claims, err := h.validator.ClaimsOf(req.Token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}

	out := gin.H{
		"valid":       true,
		"kind":        claims.Kind,
		"permissions": claims.Permissions,
		"expiresAt":   claims.ExpiresAt,
	}
	if claims.EnvironmentID != 0 {
		out["environmentId"] = claims.EnvironmentID
	}
	if claims.ResourceName != "" {
		out["fileName"] = claims.ResourceName
	}
	c.JSON(http.StatusOK, out)
}
