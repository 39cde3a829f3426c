package handlers

import (
	"errors"
	"time"

	"github.com/whisperwall/whisperwall-backend/internal/config"
	"github.com/whisperwall/whisperwall-backend/internal/dto"
	"github.com/whisperwall/whisperwall-backend/internal/middleware"
	"github.com/whisperwall/whisperwall-backend/internal/services"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg}
}

func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
			Success: false, Message: "Invalid request body",
		})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
			Success: false, Message: err.Error(),
		})
	}

	if err := h.authService.Register(&req); err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
				Success: false, Message: "Username is already taken",
			})
		case errors.Is(err, services.ErrEmailTaken):
			return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
				Success: false, Message: "This email is already registered",
			})
		case errors.Is(err, services.ErrEmailDelivery):
			return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
				Success: false, Message: "Failed to send verification email",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
				Success: false, Message: "Error in registering user",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(dto.APIResponse{
		Success: true,
		Message: "User registered successfully. Please verify your email to complete registration.",
	})
}

func (h *AuthHandler) VerifyUser(c *fiber.Ctx) error {
	var req dto.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
			Success: false, Message: "Invalid request body",
		})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
			Success: false, Message: err.Error(),
		})
	}

	if err := h.authService.VerifyUser(req.Username, req.Code); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
				Success: false, Message: "User not found",
			})
		case errors.Is(err, services.ErrInvalidCode):
			return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
				Success: false, Message: "Incorrect verification code",
			})
		case errors.Is(err, services.ErrCodeExpired):
			return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
				Success: false, Message: "Verification code has expired. Please sign up again to get a new code.",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
				Success: false, Message: "Error in verifying user",
			})
		}
	}

	return c.JSON(dto.APIResponse{
		Success: true, Message: "User verified successfully",
	})
}

func (h *AuthHandler) CheckUsernameUnique(c *fiber.Ctx) error {
	username := c.Query("username")
	if err := dto.ValidateUsername(username); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
			Success: false, Message: err.Error(),
		})
	}

	available, err := h.authService.CheckUsernameUnique(username)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false, Message: "Error checking username",
		})
	}
	if !available {
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
			Success: false, Message: "Username is already taken",
		})
	}

	return c.JSON(dto.APIResponse{
		Success: true, Message: "Username is available",
	})
}

func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
			Success: false, Message: "Invalid request body",
		})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
			Success: false, Message: err.Error(),
		})
	}

	token, user, err := h.authService.Login(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
				Success: false, Message: "No account found for this email",
			})
		case errors.Is(err, services.ErrNotVerified):
			return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
				Success: false, Message: "Please verify your account before signing in",
			})
		case errors.Is(err, services.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false, Message: "Invalid email or password",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
				Success: false, Message: "Error signing in",
			})
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Expires:  time.Now().Add(h.cfg.JWTExpiry),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})

	return c.JSON(dto.SignInResponse{
		Success: true,
		Message: "Signed in successfully",
		Token:   token,
		User:    *user,
	})
}

func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	// Sessions are stateless; signing out just drops the cookie.
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})

	return c.JSON(dto.APIResponse{
		Success: true, Message: "Signed out successfully",
	})
}
