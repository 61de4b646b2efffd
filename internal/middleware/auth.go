package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Hassan-Maher/Quizify/internal/response"
	"github.com/Hassan-Maher/Quizify/internal/utils"
)

const (
	ContextUserID = "userId"
	ContextEmail  = "email"
)

func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, "missing authorization", nil)
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Abort(c, http.StatusUnauthorized, "invalid authorization", nil)
			return
		}

		token, err := jwt.ParseWithClaims(parts[1], &utils.AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			response.Abort(c, http.StatusUnauthorized, "invalid token", nil)
			return
		}

		claims, ok := token.Claims.(*utils.AccessClaims)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, "invalid claims", nil)
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}
