package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/table-studio/internal/utils"
)

// AuthConfig holds configuration for the auth middleware
type AuthConfig struct {
	// ResourceID is the expected audience for token validation
	ResourceID string
	// TokenValidator validates the bearer token and returns its user.
	// Used when no JWTAuthenticator is configured.
	TokenValidator func(token string, audience []string) (*utils.AuthenticatedUser, error)
	// JWTAuthenticator for JWT token validation (optional, takes precedence over TokenValidator)
	JWTAuthenticator *utils.JwtAuthenticator
	// SkipPaths bypass authentication (e.g. health checks)
	SkipPaths []string
}

// DefaultAuthConfig rejects every token until a validator is configured
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		SkipPaths: []string{"/health"},
		TokenValidator: func(token string, audience []string) (*utils.AuthenticatedUser, error) {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		},
	}
}

// AuthMiddleware returns a Fiber middleware for Bearer token authentication
func AuthMiddleware(config ...AuthConfig) fiber.Handler {
	cfg := DefaultAuthConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	return func(c *fiber.Ctx) error {
		for _, path := range cfg.SkipPaths {
			if c.Path() == path {
				return c.Next()
			}
		}

		// Extract Bearer token from Authorization header
		authHeader := c.Get("Authorization")
		var token string
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}

		if token == "" {
			c.Set("WWW-Authenticate", `Bearer realm="studio"`)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or invalid Bearer token",
			})
		}

		var (
			user *utils.AuthenticatedUser
			err  error
		)
		if cfg.JWTAuthenticator != nil {
			user, err = cfg.JWTAuthenticator.ValidateToken(token)
		} else if cfg.TokenValidator != nil {
			var audience []string
			if cfg.ResourceID != "" {
				audience = []string{cfg.ResourceID}
			}
			user, err = cfg.TokenValidator(token, audience)
		} else {
			err = fiber.NewError(fiber.StatusUnauthorized, "no token validator configured")
		}
		if err != nil || user == nil {
			c.Set("WWW-Authenticate", `Bearer realm="studio"`)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		// Check if user has required audience (if specified)
		if cfg.ResourceID != "" && !hasAudience(user, cfg.ResourceID) {
			c.Set("WWW-Authenticate", `Bearer realm="studio"`)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid audience",
			})
		}

		// Store authenticated user in context
		c.Locals("user", user)
		c.SetUserContext(utils.WithAuthenticatedUser(c.UserContext(), user))
		return c.Next()
	}
}

func hasAudience(user *utils.AuthenticatedUser, audience string) bool {
	for _, aud := range user.Aud {
		if aud == audience {
			return true
		}
	}
	return false
}

// GetAuthenticatedUser retrieves the authenticated user from Fiber context
// Returns nil if no user is found or if user is not of correct type
func GetAuthenticatedUser(c *fiber.Ctx) *utils.AuthenticatedUser {
	user, ok := c.Locals("user").(*utils.AuthenticatedUser)
	if !ok {
		return nil
	}
	return user
}
