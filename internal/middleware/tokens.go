package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/windoze95/reme-voice/internal/config"
	"github.com/windoze95/reme-voice/internal/util"
)

// Token errors returned by ParseAccessToken.
var (
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidUserID    = errors.New("invalid user_id in token")
)

// ParseAccessToken validates an HS256 access token and returns its user id.
func ParseAccessToken(secret, tokenString string) (uint, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	// Ensure this is an access token, not a refresh token
	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "access" {
		return 0, ErrInvalidTokenType
	}

	// Type assert to float64 (default for JSON numbers)
	idFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, ErrInvalidUserID
	}
	return uint(idFloat), nil
}

// TokenStatus maps a ParseAccessToken error to a response status.
func TokenStatus(err error) int {
	if errors.Is(err, ErrInvalidUserID) {
		return http.StatusBadRequest
	}
	return http.StatusUnauthorized
}

// VerifyTokenMiddleware verifies the JWT token provided in the Authorization
// header. Without JWT_SECRET_KEY the service runs unauthenticated and the
// middleware passes every request through.
func VerifyTokenMiddleware(cfg *config.Config) gin.HandlerFunc {
	secret := cfg.EnvVars.JwtSecretKey
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		userID, err := ParseAccessToken(secret, tokenString)
		if err != nil {
			c.JSON(TokenStatus(err), gin.H{"message": err.Error()})
			c.Abort()
			return
		}

		util.SetUserID(c, userID)
		c.Next()
	}
}
