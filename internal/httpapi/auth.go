package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/matt-ortiz/PyScheduler/internal/common"
)

const (
	jwtExpire     = 24 * time.Hour
	jwtNearExpiry = 2 * time.Hour
)

// Claims carries the authenticated user's identity, following the
// teacher's Claims-embeds-jwt.RegisteredClaims shape
// (peace/internal/server/middleware/auth.go).
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

func generateJWT(secret string, userID uint, username string, isAdmin bool) (string, error) {
	claims := &Claims{
		UserID:   userID,
		Username: username,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(jwtExpire)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// authMiddleware validates the bearer token and, when it's within
// jwtNearExpiry of expiring, transparently issues a fresh one on the
// response header — the same refresh-on-the-way-out pattern the
// teacher's JWTAuthMiddleware uses.
func authMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			common.Error(c, common.NewErrNo(common.KindAuth, "missing or malformed authorization header"))
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			common.Error(c, common.NewErrNo(common.KindAuth, "invalid or expired token"))
			c.Abort()
			return
		}

		if claims.ExpiresAt.Time.Before(time.Now().Add(jwtNearExpiry)) {
			if fresh, err := generateJWT(secret, claims.UserID, claims.Username, claims.IsAdmin); err == nil {
				c.Header("Authorization", "Bearer "+fresh)
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("is_admin", claims.IsAdmin)
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", common.NewErrNo(common.KindAuth, "missing bearer prefix")
	}
	return header[len(prefix):], nil
}
