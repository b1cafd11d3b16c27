package middleware

import (
	"errors"
	"strings"

	"pickabook/database"
	userModel "pickabook/models/user"
	"pickabook/types"
	"pickabook/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequireAuth verifies the bearer token, resolves the embedded user
// against the store, and attaches the *user.User to the request context.
// Requests without a valid token never reach a controller.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		var token string

		if authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
					Error: "Invalid authorization header format",
				})
			}
			token = tokenParts[1]
		} else {
			// Fall back to the access cookie
			token = c.Cookies("access")
			if token == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
					Error: "Authorization token missing",
				})
			}
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
				Error: "Invalid or expired token",
			})
		}

		userID, err := utils.UserIDFromClaims(claims)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
				Error: "Invalid or expired token",
			})
		}

		var u userModel.User
		if err := database.DB.First(&u, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
					Error: "User not found",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
				Error:   "Failed to resolve user",
				Details: err.Error(),
			})
		}

		c.Locals("user", &u)
		return c.Next()
	}
}

// RequireAdmin rejects non-administrator users. Must run after RequireAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, ok := CurrentUser(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
				Error: "Authorization token missing",
			})
		}
		if !u.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(types.ErrorResponse{
				Error: "Admin access required",
			})
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated user attached by RequireAuth.
func CurrentUser(c *fiber.Ctx) (*userModel.User, bool) {
	u, ok := c.Locals("user").(*userModel.User)
	return u, ok
}
