package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/utils"
)

type authString string

// AuthMiddleware validates the bearer token and puts the staff id and role in
// the request context. Requests without a token pass through only when
// authentication is disabled.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")

		if auth == "" {
			if config.AuthRequired() {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				c.Abort()
				return
			}
			c.Next()
			return
		}

		bearer := "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		token := auth[len(bearer):]

		validate, err := utils.JwtValidate(token)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		// signed out tokens are kept in redis until they expire
		var revoked bool
		if exists, err := config.GetRedisObject("RevokedToken:"+token, &revoked); err == nil && exists && revoked {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		customClaim, _ := validate.Claims.(*utils.JwtCustomClaim)

		ctx := context.WithValue(c.Request.Context(), authString("auth"), customClaim)
		ctx = utils.SetTokenInContext(ctx, token)
		if customClaim != nil {
			ctx = utils.SetUserIdInContext(ctx, customClaim.ID)
			ctx = utils.SetUserRoleInContext(ctx, customClaim.Role)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func CtxValue(ctx context.Context) *utils.JwtCustomClaim {
	raw, _ := ctx.Value(authString("auth")).(*utils.JwtCustomClaim)
	return raw
}
