package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const callerIDKey = "auth_caller_id"

// AuthConfig configures the bearer-token middleware.
type AuthConfig struct {
	TokenValidator func(token string) (*Claims, error)
	SkipPaths      []string
}

// Claims is what a validated bearer token yields: who is calling.
type Claims struct {
	CallerID string
	Exp      time.Time
}

// Auth requires a valid "Bearer <token>" Authorization header on every
// path not in SkipPaths, and stashes the resolved caller id in context.
func Auth(config *AuthConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c, "authorization header is required")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			unauthorized(c, "invalid authorization header")
			return
		}

		claims, err := config.TokenValidator(parts[1])
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}
		if claims.Exp.Before(time.Now()) {
			unauthorized(c, "token has expired")
			return
		}

		c.Set(callerIDKey, claims.CallerID)
		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
		"requestId": GetRequestID(c),
		"timestamp": time.Now().UTC(),
	})
}

// GetCallerID returns the authenticated caller id, or "" if unset.
func GetCallerID(c *gin.Context) string {
	if id, exists := c.Get(callerIDKey); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// NewJWTTokenValidator builds a production HS256 validator.
func NewJWTTokenValidator(secret, issuer string) func(token string) (*Claims, error) {
	return func(tokenString string) (*Claims, error) {
		parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil {
			return nil, fmt.Errorf("parse token: %w", err)
		}
		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok || !parsed.Valid {
			return nil, fmt.Errorf("invalid token claims")
		}
		if issuer != "" {
			if iss, _ := claims["iss"].(string); iss != issuer {
				return nil, fmt.Errorf("invalid token issuer")
			}
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			return nil, fmt.Errorf("missing subject claim")
		}
		exp := time.Time{}
		if expFloat, ok := claims["exp"].(float64); ok {
			exp = time.Unix(int64(expFloat), 0)
		}
		return &Claims{CallerID: sub, Exp: exp}, nil
	}
}

// MockTokenValidator treats the bearer token itself as the caller id.
// Development/test only -- never wire this in a production config.
func MockTokenValidator(token string) (*Claims, error) {
	return &Claims{CallerID: token, Exp: time.Now().Add(24 * time.Hour)}, nil
}
