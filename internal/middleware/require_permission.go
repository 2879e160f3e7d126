package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/scenariolabs/imagevault/internal/metrics"
	"github.com/scenariolabs/imagevault/pkg/token"

	"github.com/gin-gonic/gin"
)

const claimsContextKey = "tokenClaims"

// RequirePermission authorizes the bearer token for the given permission.
// When the route carries an :environmentId param, the token must also be
// scoped to that environment.
func RequirePermission(validator *token.Validator, perm token.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		var opts []token.AuthorizeOption
		if envParam := c.Param("environmentId"); envParam != "" {
			envID, err := strconv.ParseInt(envParam, 10, 64)
			if err != nil || envID <= 0 {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid environmentId"})
				return
			}
			opts = append(opts, token.WithEnvironment(envID))
		}

		dec := validator.Authorize(raw, perm, opts...)
		recordDecision(dec)
		if !dec.Allowed {
			// The reason stays in metrics and logs only.
			status := dec.Status()
			c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
			return
		}

		claims, err := validator.ClaimsOf(raw)
		if err == nil {
			c.Set(claimsContextKey, claims)
		}
		c.Next()
	}
}

// ClaimsFrom returns the token claims placed in the context by
// RequirePermission, if any.
func ClaimsFrom(c *gin.Context) (*token.ClaimSet, bool) {
	v, ok := c.Get(claimsContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*token.ClaimSet)
	return claims, ok
}

func recordDecision(dec token.Decision) {
	if dec.Allowed {
		metrics.AuthorizeDecisionsTotal.WithLabelValues("allow", "").Inc()
		return
	}
	metrics.AuthorizeDecisionsTotal.WithLabelValues("deny", string(dec.Reason)).Inc()
}

func bearerToken(authHeader string) string {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
