package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/filterhub/filterhub-api/internal/middleware"
	"github.com/filterhub/filterhub-api/internal/models"
)

// claimsFromContext returns the authenticated provider's claims, when set by
// the JWT middleware.
func claimsFromContext(c *gin.Context) (*models.JWTClaims, bool) {
	value, ok := c.Get(middleware.ContextProviderKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}

// providerIDFromContext is the common shortcut for the acting provider id.
// Zero means anonymous.
func providerIDFromContext(c *gin.Context) int64 {
	claims, ok := claimsFromContext(c)
	if !ok {
		return 0
	}
	return claims.ProviderID
}
