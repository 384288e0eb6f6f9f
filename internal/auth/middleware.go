package auth

import (
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/wb-go/wbf/ginext"

	"eventportal/internal/dto"
	"eventportal/internal/model"
)

const principalKey = "auth.principal"

// RequireAuth rejects requests without a valid bearer token and stores the
// caller for later handlers.
func RequireAuth(m *Manager) gin.HandlerFunc {
	return func(c *ginext.Context) {
		token, err := TokenFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			dto.UnauthorizedError(c, "Authorization header must be Bearer {token}")
			return
		}

		p, err := m.Parse(token)
		if err != nil {
			dto.UnauthorizedError(c, "Invalid or expired token")
			return
		}

		WithPrincipal(c, p)
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *ginext.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			dto.UnauthorizedError(c, "Authentication required")
			return
		}
		if !slices.Contains(roles, p.Role) {
			dto.ForbiddenError(c)
			return
		}
		c.Next()
	}
}

func PrincipalFrom(c *ginext.Context) (*Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok
}

func WithPrincipal(c *ginext.Context, p *Principal) {
	c.Set(principalKey, p)
}
