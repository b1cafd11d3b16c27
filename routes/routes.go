package routes

import (
	"os"

	"pickabook/controllers/auth"
	"pickabook/controllers/generate"
	"pickabook/httpServices/brevo"
	"pickabook/httpServices/replicate"
	"pickabook/logger"
	"pickabook/middleware"
	otpService "pickabook/services/otp"
	userService "pickabook/services/user"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	brevoClient := brevo.NewClient(os.Getenv("BREVO_BASE_URL"), os.Getenv("BREVO_API_KEY"))
	replicateClient := replicate.NewClient(os.Getenv("REPLICATE_BASE_URL"), os.Getenv("REPLICATE_API_TOKEN"))

	asyncLogger := logger.NewAsyncLogger(db)
	otps := otpService.NewOTPService(db, brevoClient, os.Getenv("FROM_NAME"), os.Getenv("FROM_EMAIL"))
	users := userService.NewUserService(db)

	authController := auth.NewAuthController(db, otps, users, asyncLogger)
	generateController := generate.NewGenerateController(db, users, replicateClient, asyncLogger)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	// Index route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Pickabook Backend is running")
	})

	/*=============================================================================
	| Auth Routes
	===============================================================================*/
	authGroup := app.Group("/auth")

	// Issuance is rate limited per source address on top of the
	// per-email cooldown inside the OTP service.
	authGroup.Post("/send-otp", middleware.OTPRateLimiter(), authController.SendOTP)
	authGroup.Post("/verify-otp", authController.VerifyOTP)
	authGroup.Get("/me", middleware.RequireAuth(), authController.GetCurrentUser)

	/*=============================================================================
	| Admin Routes
	===============================================================================*/
	authGroup.Get("/users", middleware.RequireAuth(), middleware.RequireAdmin(), authController.ListUsers)
	authGroup.Patch("/users/:userId/credits", middleware.RequireAuth(), middleware.RequireAdmin(), authController.UpdateUserCredits)

	/*=============================================================================
	| Generation Routes
	===============================================================================*/
	generateGroup := app.Group("/generate")
	generateGroup.Post("/", middleware.RequireAuth(), generateController.GenerateImage)
}
