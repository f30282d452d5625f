package api

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/treemenu/treemenu-server/internal/auth"
)

// bearerSecurity marks an operation as requiring an admin token in the OpenAPI document.
var bearerSecurity = []map[string][]string{{"bearer": {}}}

// requireAdmin verifies the bearer token in authHeader.
func (s *Server) requireAdmin(authHeader string) (*auth.AdminClaims, error) {
	if s.services.Tokens == nil {
		return nil, huma.Error401Unauthorized("Admin access is not configured")
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, huma.Error401Unauthorized("Missing or malformed authorization header")
	}

	claims, err := s.services.Tokens.VerifyAdminToken(strings.TrimSpace(token))
	if err != nil {
		s.logger.Debug("admin token rejected", "error", err)
		return nil, huma.Error401Unauthorized("Invalid or expired token")
	}
	return claims, nil
}
