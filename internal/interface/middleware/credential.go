package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-graphql-blog/internal/application"
)

// TokenParser verifies session tokens; *helpers.JWTManager satisfies it.
type TokenParser = application.TokenService

// Credential copies the Authorization header into the request context where
// resolvers pick it up. Verification is left to the operation, so anonymous
// and invalid credentials both pass through here.
//
// When tokens is non-nil and the header verifies, the user id is also set
// under "userID" so KeyByUserID can limit per account. Install it before
// RateLimit.
func Credential(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		c.Request = c.Request.WithContext(application.WithRequestCredential(c.Request.Context(), header))
		if tokens != nil {
			if claims, err := tokens.ParseToken(application.BearerToken(header)); err == nil {
				c.Set("userID", claims.UserID)
			}
		}
		c.Next()
	}
}
