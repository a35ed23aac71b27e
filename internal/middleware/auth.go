// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"strconv"
	"strings"

	"codesync/internal/cache"
	"codesync/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// BlacklistKeyPrefix is the Redis key prefix for revoked JWT IDs.
const BlacklistKeyPrefix = "jwt:blacklist:"

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// parseToken validates the raw JWT and returns the user ID from the "sub"
// claim. A token whose jti is blacklisted (revoked by logout) is rejected.
func parseToken(c *fiber.Ctx, tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	if jti, ok := claims["jti"].(string); ok && cache.Enabled() {
		exists, redisErr := cache.GetClient().Exists(c.Context(), BlacklistKeyPrefix+jti).Result()
		if redisErr == nil && exists > 0 {
			return 0, fiber.NewError(fiber.StatusUnauthorized, "Token has been revoked")
		}
	}

	subStr, ok := claims["sub"].(string)
	if !ok {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid token structure - missing subject")
	}

	userIDVal, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID in token")
	}

	return uint(userIDVal), nil
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authorization header required",
		})
	}

	userID, err := parseToken(c, tokenString)
	if err != nil {
		msg := "Invalid or expired token"
		if fe, ok := err.(*fiber.Error); ok {
			msg = fe.Message
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": msg,
		})
	}

	c.Locals("userID", userID)
	return c.Next()
}

// OptionalAuth resolves the user ID when a valid token is present but never
// rejects the request. Public read endpoints use it so per-viewer fields
// (isLiked, isFollowing) reflect the caller.
func OptionalAuth(c *fiber.Ctx) error {
	if tokenString := bearerToken(c); tokenString != "" {
		if userID, err := parseToken(c, tokenString); err == nil {
			c.Locals("userID", userID)
		}
	}
	return c.Next()
}

// WebSocketAuthRequired validates JWT tokens from query parameters for WebSocket connections.
func WebSocketAuthRequired(c *fiber.Ctx) error {
	// Try the query parameter first (browsers cannot set WS headers)
	token := c.Query("token")
	if token == "" {
		token = bearerToken(c)
	}
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Token required",
		})
	}

	userID, err := parseToken(c, token)
	if err != nil {
		msg := "Invalid or expired token"
		if fe, ok := err.(*fiber.Error); ok {
			msg = fe.Message
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": msg,
		})
	}

	c.Locals("userID", userID)
	return c.Next()
}
