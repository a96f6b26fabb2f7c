// Package middleware provides HTTP middleware for the Gin router.
//
// Go Learning Note — Middleware Pattern (Gin):
// In Gin, middleware is any function with the signature `gin.HandlerFunc`, which
// is `func(*gin.Context)`. Middleware functions form a chain: each one runs,
// optionally calls c.Next() to pass control to the next handler, and can call
// c.Abort() to stop the chain. This is the "chain of responsibility" pattern.
package middleware

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"scrappickup/internal/domain/entities"
)

// Context keys for the authenticated caller.
const (
	UserIDKey   = "user_id"
	UserTypeKey = "user_type"
)

var (
	errMissingHeader = errors.New("missing authorization header")
	errBadFormat     = errors.New("invalid authorization format")
	errBadIdentity   = errors.New("invalid user identity")
)

// Claims is the JWT payload identifying a caller.
type Claims struct {
	UserID   int64             `json:"user_id"`
	UserType entities.UserType `json:"user_type"`
	jwt.RegisteredClaims
}

// Authenticate picks the identity scheme: HS256 JWTs when a secret is
// configured, the development token otherwise.
func Authenticate(jwtSecret string) gin.HandlerFunc {
	if jwtSecret == "" {
		log.Printf("[AUTH] WARNING: AUTH_JWT_SECRET is not set, accepting unsigned <type>-<id> development tokens. Any caller can claim any identity.")
		return MockAuth()
	}
	return JWTAuth(jwtSecret)
}

func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errMissingHeader
	}
	// strings.SplitN splits into at most 2 parts, handling tokens with spaces.
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errBadFormat
	}
	return strings.TrimSpace(parts[1]), nil
}

func unauthorized(c *gin.Context, err error) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	c.Abort()
}

// MockAuth accepts "Bearer <userType>-<userId>", e.g. "Bearer SR-42".
//
// Go Learning Note — c.Abort():
// c.Abort() prevents subsequent handlers in the chain from running. Without it,
// even after writing an error response, the next handler would still execute.
// Always pair error responses with c.Abort() in middleware.
func MockAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			unauthorized(c, err)
			return
		}

		typePart, idPart, ok := strings.Cut(token, "-")
		if !ok {
			unauthorized(c, errBadIdentity)
			return
		}
		userType, err := entities.ParseUserType(strings.ToUpper(typePart))
		if err != nil {
			unauthorized(c, errBadIdentity)
			return
		}
		userID, err := strconv.ParseInt(idPart, 10, 64)
		if err != nil || userID <= 0 {
			unauthorized(c, errBadIdentity)
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(UserTypeKey, userType)
		c.Next()
	}
}

// JWTAuth validates an HS256 token carrying user_id and user_type claims.
func JWTAuth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			unauthorized(c, err)
			return
		}

		claims := &Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !parsed.Valid {
			unauthorized(c, errors.New("invalid token"))
			return
		}
		if claims.UserID <= 0 || !claims.UserType.Valid() {
			unauthorized(c, errBadIdentity)
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserTypeKey, claims.UserType)
		c.Next()
	}
}

// IssueToken signs a token for the given caller. The server never issues
// tokens itself; this exists for tooling and tests.
func IssueToken(secret string, userID int64, userType entities.UserType, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		UserType: userType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// RequireUserTypes restricts a route group to the given account types. Must
// be used after an authentication middleware.
func RequireUserTypes(types ...entities.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		userType := GetUserType(c)
		for _, t := range types {
			if userType == t {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "user type not permitted"})
		c.Abort()
	}
}

// GetUserID returns the caller id set by the auth middleware, or 0.
//
// Go Learning Note — Type Assertion:
// c.Get() returns (any, bool). The two-value form `v, ok := x.(int64)`
// returns ok=false instead of panicking when the value has another type.
func GetUserID(c *gin.Context) int64 {
	v, _ := c.Get(UserIDKey)
	id, _ := v.(int64)
	return id
}

func GetUserType(c *gin.Context) entities.UserType {
	v, _ := c.Get(UserTypeKey)
	t, _ := v.(entities.UserType)
	return t
}
