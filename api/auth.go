package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userIDKey = "userID"

var errMissingSubject = errors.New("token has no subject")

// AuthMiddleware verifies HS256 bearer tokens issued by the auth service and
// stores the "sub" claim as the caller's user id.
func AuthMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			fail(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := subject(parser, strings.TrimSpace(raw), key)
		if err != nil {
			fail(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func subject(parser *jwt.Parser, raw string, key []byte) (string, error) {
	token, err := parser.Parse(raw, func(*jwt.Token) (any, error) { return key, nil })
	if err != nil {
		return "", err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", errMissingSubject
	}
	return sub, nil
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}
