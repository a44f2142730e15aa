package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/middlewares"
	"github.com/motoworks/workshop_backend/utils"
)

// logoutHandler revokes the caller's token until it would have expired.
func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		token, ok := utils.GetTokenFromContext(ctx)
		if !ok || token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ttl := time.Hour
		if claim := middlewares.CtxValue(ctx); claim != nil && claim.ExpiresAt > 0 {
			ttl = time.Until(time.Unix(claim.ExpiresAt, 0))
		}
		if ttl <= 0 {
			c.Status(http.StatusNoContent)
			return
		}
		if err := config.SetRedisObject("RevokedToken:"+token, true, ttl); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
