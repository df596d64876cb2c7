package api

import (
	"github.com/gofiber/fiber/v2"
)

// ProtectedResourcePath serves OAuth 2.0 protected resource metadata (RFC 9728)
const ProtectedResourcePath = "/.well-known/oauth-protected-resource"

// ProtectedResource tells OAuth clients where to obtain tokens for this API
type ProtectedResource struct {
	Resource             string
	AuthorizationServers []string
}

func (s *APIServer) handleOAuthProtectedResource(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"resource":                 s.resource.Resource,
		"authorization_servers":    s.resource.AuthorizationServers,
		"bearer_methods_supported": []string{"header"},
		"scopes_supported":         []string{},
	})
}
