// Package middleware carries the HTTP cross-cutting concerns. Identity and
// workplace membership are owned by an external service; the token it
// issues is the only auth input here.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// JWTAuth validates the bearer token and exposes the workplace scope and
// acting user to the handlers. Every media and folder operation is bound
// to the workplace claim.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}

		workplaceID, _ := claims["workplace_id"].(string)
		if workplaceID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token carries no workplace"})
			return
		}
		c.Set("workplace_id", workplaceID)

		if userID, ok := claims["user_id"].(string); ok && userID != "" {
			c.Set("user_id", userID)
		}

		c.Next()
	}
}

// GenerateToken issues a token scoped to a workplace, used by tests and
// local tooling.
func GenerateToken(workplaceID, userID, secret string) (string, error) {
	claims := jwt.MapClaims{
		"workplace_id": workplaceID,
		"exp":          time.Now().Add(24 * time.Hour).Unix(),
	}
	if userID != "" {
		claims["user_id"] = userID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
