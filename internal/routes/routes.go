package routes

import (
	"time"

	"github.com/whisperwall/whisperwall-backend/internal/config"
	"github.com/whisperwall/whisperwall-backend/internal/handlers"
	"github.com/whisperwall/whisperwall-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	messageHandler *handlers.MessageHandler,
	suggestHandler *handlers.SuggestHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Public writes get a stricter limit: 10 req/min per IP
	strict := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})

	api.Post("/sign-up", strict, authHandler.SignUp)
	api.Post("/verify-user", strict, authHandler.VerifyUser)
	api.Get("/check-username-unique", authHandler.CheckUsernameUnique)
	api.Post("/auth/sign-in", strict, authHandler.SignIn)
	api.Post("/send-message", strict, messageHandler.SendMessage)

	// Protected routes (JWT required)
	protected := middleware.JWTProtected(cfg)
	api.Post("/auth/sign-out", protected, authHandler.SignOut)
	api.Get("/accept-messages", protected, messageHandler.GetAcceptMessages)
	api.Post("/accept-messages", protected, messageHandler.SetAcceptMessages)
	api.Get("/get-messages", protected, messageHandler.GetMessages)
	api.Delete("/delete-message/:messageId", protected, messageHandler.DeleteMessage)
	api.Post("/suggest-messages", protected, suggestHandler.SuggestMessages)
}
