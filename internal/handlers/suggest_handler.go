package handlers

import (
	"bufio"

	"github.com/whisperwall/whisperwall-backend/internal/dto"
	"github.com/whisperwall/whisperwall-backend/internal/services"

	"github.com/gofiber/fiber/v2"
)

type SuggestHandler struct {
	suggestService *services.SuggestService
}

func NewSuggestHandler(suggestService *services.SuggestService) *SuggestHandler {
	return &SuggestHandler{suggestService: suggestService}
}

// SuggestMessages streams conversation-starter questions as plain text,
// writing provider output through to the client as it arrives.
func (h *SuggestHandler) SuggestMessages(c *fiber.Ctx) error {
	var req dto.SuggestRequest
	// An empty body is fine; the service falls back to a default prompt.
	_ = c.BodyParser(&req)

	prompt := req.Prompt
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		_ = h.suggestService.Stream(prompt, w)
		_ = w.Flush()
	})
	return nil
}
