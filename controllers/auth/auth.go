package auth

import (
	"errors"
	"strconv"

	"pickabook/logger"
	"pickabook/middleware"
	userModel "pickabook/models/user"
	otpService "pickabook/services/otp"
	userService "pickabook/services/user"
	"pickabook/types"
	authTypes "pickabook/types/auth"
	"pickabook/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AuthController handles OTP login and user administration.
type AuthController struct {
	db             *gorm.DB
	otpService     *otpService.Service
	userService    *userService.Service
	loggerInstance *logger.AsyncLogger
}

func NewAuthController(db *gorm.DB, otps *otpService.Service, users *userService.Service, asyncLogger *logger.AsyncLogger) *AuthController {
	return &AuthController{
		db:             db,
		otpService:     otps,
		userService:    users,
		loggerInstance: asyncLogger,
	}
}

func (h *AuthController) logRequest(c *fiber.Ctx) {
	if h.loggerInstance != nil {
		h.loggerInstance.Log(utils.CreateSanitizedLogEntry(c))
	}
}

// SendOTP issues a one-time passcode to the given email address.
func (h *AuthController) SendOTP(c *fiber.Ctx) error {
	defer h.logRequest(c)

	var req authTypes.SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse send-otp request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Error: "Invalid request body",
		})
	}

	if req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Error: "Email is required",
		})
	}

	email := otpService.NormalizeEmail(req.Email)

	if _, err := h.otpService.Issue(email); err != nil {
		var rateLimit *otpService.RateLimitError
		if errors.As(err, &rateLimit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(types.ErrorResponse{
				Error:           "Please wait before requesting another OTP",
				CooldownSeconds: rateLimit.Seconds,
			})
		}
		logger.Error("Failed to send OTP to "+email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Error:   "Failed to send OTP",
			Details: err.Error(),
		})
	}

	logger.Success("OTP sent to " + email)
	return c.Status(fiber.StatusOK).JSON(authTypes.SendOTPResponse{
		Message:         "OTP sent successfully",
		Email:           email,
		CooldownSeconds: int(otpService.CooldownWindow.Seconds()),
	})
}

// VerifyOTP consumes a submitted code, resolves or creates the user, and
// mints a session token.
func (h *AuthController) VerifyOTP(c *fiber.Ctx) error {
	defer h.logRequest(c)

	var req authTypes.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse verify-otp request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Error: "Invalid request body",
		})
	}

	if req.Email == "" || req.OTP == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Error: "Email and OTP are required",
		})
	}

	email := otpService.NormalizeEmail(req.Email)

	if err := h.otpService.Verify(email, req.OTP); err != nil {
		if errors.Is(err, otpService.ErrInvalidOrExpired) {
			return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
				Error: "Invalid or expired OTP",
			})
		}
		logger.Error("Failed to verify OTP for "+email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Error:   "Failed to verify OTP",
			Details: err.Error(),
		})
	}

	u, err := h.userService.FindOrCreate(email, req.Username)
	if err != nil {
		logger.Error("Failed to resolve user for "+email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Error:   "Failed to verify OTP",
			Details: err.Error(),
		})
	}

	token, err := utils.GenerateToken(u)
	if err != nil {
		logger.Error("Failed to mint session token for "+email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Error:   "Failed to verify OTP",
			Details: err.Error(),
		})
	}

	logger.Success("User logged in successfully: " + email)
	return c.Status(fiber.StatusOK).JSON(authTypes.VerifyOTPResponse{
		Message: "Login successful",
		Token:   token,
		User:    u.Public(),
	})
}

// GetCurrentUser returns the authenticated user's projection.
func (h *AuthController) GetCurrentUser(c *fiber.Ctx) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Error: "Authorization token missing",
		})
	}

	return c.Status(fiber.StatusOK).JSON(authTypes.CurrentUserResponse{
		User: u.Public(),
	})
}

// ListUsers returns all users, newest first. Admin only.
func (h *AuthController) ListUsers(c *fiber.Ctx) error {
	users, err := h.userService.List()
	if err != nil {
		logger.Error("Failed to list users", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Error:   "Failed to get users",
			Details: err.Error(),
		})
	}

	projections := make([]userModel.Public, 0, len(users))
	for i := range users {
		projections = append(projections, users[i].PublicWithCreatedAt())
	}

	return c.Status(fiber.StatusOK).JSON(authTypes.ListUsersResponse{
		Users: projections,
	})
}

// UpdateUserCredits overwrites a user's balance with the exact given
// value. Admin only.
func (h *AuthController) UpdateUserCredits(c *fiber.Ctx) error {
	defer h.logRequest(c)

	userID, err := strconv.ParseUint(c.Params("userId"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Error: "Invalid user id",
		})
	}

	var req authTypes.UpdateCreditsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Error: "Invalid request body",
		})
	}

	if req.Credits == nil || *req.Credits < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Error: "Valid credits value required",
		})
	}

	u, err := h.userService.SetCredits(uint(userID), *req.Credits)
	if err != nil {
		if errors.Is(err, userService.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ErrorResponse{
				Error: "User not found",
			})
		}
		logger.Error("Failed to update credits", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Error:   "Failed to update credits",
			Details: err.Error(),
		})
	}

	logger.Success("Credits updated for user " + u.Email)
	return c.Status(fiber.StatusOK).JSON(authTypes.UpdateCreditsResponse{
		Message: "Credits updated successfully",
		User:    u.Public(),
	})
}
