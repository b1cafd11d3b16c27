package generate

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"pickabook/httpServices/replicate"
	"pickabook/logger"
	"pickabook/middleware"
	userService "pickabook/services/user"
	"pickabook/types"
	generateTypes "pickabook/types/generate"
	"pickabook/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GenerationPrompt is the fixed prompt template forwarded with every
// request; clients cannot influence it.
const GenerationPrompt = "soft 3d render, disney pixar style, cute 3d character, cinematic lighting, 8k, unreal engine 5 render, dreamy background, high quality, detailed texture"

// MaxImageSize caps uploads at 10MB.
const MaxImageSize = int64(10 * 1024 * 1024)

// Inference runs the generative model on an uploaded image.
type Inference interface {
	CreatePrediction(input replicate.FluxKontextInput) (*replicate.Prediction, error)
}

// GenerateController proxies uploaded images to the inference API,
// gated by the caller's credit balance.
type GenerateController struct {
	db             *gorm.DB
	userService    *userService.Service
	inference      Inference
	loggerInstance *logger.AsyncLogger
}

func NewGenerateController(db *gorm.DB, users *userService.Service, inference Inference, asyncLogger *logger.AsyncLogger) *GenerateController {
	return &GenerateController{
		db:             db,
		userService:    users,
		inference:      inference,
		loggerInstance: asyncLogger,
	}
}

// GenerateImage forwards the uploaded image plus the fixed prompt to the
// inference API and decrements one credit on success.
func (gc *GenerateController) GenerateImage(c *fiber.Ctx) error {
	defer func() {
		if gc.loggerInstance != nil {
			gc.loggerInstance.Log(utils.CreateSanitizedLogEntry(c))
		}
	}()

	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Error: "Authorization token missing",
		})
	}

	// No mutation and no external call when the balance is empty.
	if u.Credits <= 0 {
		zero := 0
		return c.Status(fiber.StatusForbidden).JSON(types.ErrorResponse{
			Error:   "Insufficient credits",
			Credits: &zero,
			Message: "You have no credits remaining. Please contact admin for more credits.",
		})
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Error: "No image file provided",
		})
	}

	mimeType := file.Header.Get("Content-Type")
	if !isValidImageType(mimeType) {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Error: "Invalid file type. Only JPEG, JPG, PNG, and WebP files are allowed",
		})
	}

	if file.Size > MaxImageSize {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Error: "File size too large. Maximum size is 10MB",
		})
	}

	src, err := file.Open()
	if err != nil {
		logger.Error("Failed to open uploaded file", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Error:   "Failed to process uploaded file",
			Details: err.Error(),
		})
	}
	defer src.Close()

	fileBytes, err := io.ReadAll(src)
	if err != nil {
		logger.Error("Failed to read uploaded file", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Error:   "Failed to read file content",
			Details: err.Error(),
		})
	}

	dataURI := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(fileBytes))

	prediction, err := gc.inference.CreatePrediction(replicate.FluxKontextInput{
		InputImage:       dataURI,
		Prompt:           GenerationPrompt,
		AspectRatio:      "match_input_image",
		OutputFormat:     "jpg",
		SafetyTolerance:  2,
		PromptUpsampling: false,
	})
	if err != nil {
		// No deduction on inference failure.
		logger.Error("Failed to generate image for "+u.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Error:   "Failed to generate image",
			Details: err.Error(),
		})
	}

	imageURL, err := prediction.OutputURL()
	if err != nil {
		logger.Error("Unexpected inference output for "+u.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Error:   "Failed to generate image",
			Details: err.Error(),
		})
	}

	remaining, err := gc.userService.ConsumeCredit(u.ID)
	if err != nil {
		if errors.Is(err, userService.ErrInsufficientCredits) {
			zero := 0
			return c.Status(fiber.StatusForbidden).JSON(types.ErrorResponse{
				Error:   "Insufficient credits",
				Credits: &zero,
			})
		}
		logger.Error("Failed to deduct credit for "+u.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Error:   "Failed to deduct credit",
			Details: err.Error(),
		})
	}

	logger.Success(fmt.Sprintf("Image generated for %s, %d credits remaining", u.Email, remaining))
	return c.Status(fiber.StatusOK).JSON(generateTypes.GenerateResponse{
		ImageURL: imageURL,
		Credits:  remaining,
	})
}

// isValidImageType checks if the provided content type is a valid image type
func isValidImageType(contentType string) bool {
	validTypes := map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/webp": true,
	}
	return validTypes[contentType]
}
