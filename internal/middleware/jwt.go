package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/automatehub/messaging/internal/auth"
)

// JWTAuth verifies the bearer token and stores the caller's user id in
// c.Locals("user_id") for downstream handlers.
func JWTAuth(verifier *auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := auth.ParseBearer(c.Get("Authorization"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "unauthorized",
			})
		}
		claims, err := verifier.Verify(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "unauthorized",
			})
		}
		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}
