package middleware

import (
	"time"

	"pickabook/types"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// OTPRateLimiter caps OTP issuance at 3 requests per 2 minutes per
// client address. Defense in depth on top of the per-email cooldown:
// it rejects independently of email-level state.
func OTPRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        3,
		Expiration: 2 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(types.ErrorResponse{
				Error: "Too many OTP requests. Please wait 2 minutes before trying again.",
			})
		},
	})
}
