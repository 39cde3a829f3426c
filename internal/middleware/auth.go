package middleware

import (
	"github.com/whisperwall/whisperwall-backend/internal/config"
	"github.com/whisperwall/whisperwall-backend/internal/dto"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the cookie the sign-in handler sets; the JWT middleware
// accepts the token from either the Authorization header or this cookie.
const SessionCookie = "access_token"

func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		TokenLookup: "header:Authorization,cookie:" + SessionCookie,
		AuthScheme:  "Bearer",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "User not authenticated",
			})
		},
	})
}
