package devserver

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	localUser        = "auth_user"
	localToken       = "auth_token"
	localTokenExpiry = "auth_token_expiry"
)

// RequireAuth validates the bearer token, rejects revoked tokens and loads
// the account into request locals.
func RequireAuth(issuer *TokenIssuer, revoker Revoker, repo Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		claims, err := issuer.Verify(tokenStr)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid or expired token")
		}

		revoked, err := revoker.Revoked(c.UserContext(), tokenStr)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		if revoked {
			return fiber.NewError(http.StatusUnauthorized, "token revoked")
		}

		user, err := repo.FindByID(c.UserContext(), claims.UserID)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "account not found")
		}

		c.Locals(localUser, user)
		c.Locals(localToken, tokenStr)
		c.Locals(localTokenExpiry, claims.ExpiresAt)
		return c.Next()
	}
}
