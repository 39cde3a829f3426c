package handlers

import (
	"errors"

	"github.com/whisperwall/whisperwall-backend/internal/dto"
	"github.com/whisperwall/whisperwall-backend/internal/services"
	"github.com/whisperwall/whisperwall-backend/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type MessageHandler struct {
	messageService *services.MessageService
}

func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (h *MessageHandler) SetAcceptMessages(c *fiber.Ctx) error {
	identity, err := session.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
			Success: false, Message: "User not authenticated",
		})
	}

	var req dto.AcceptMessagesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
			Success: false, Message: "Invalid request body",
		})
	}

	updated, err := h.messageService.SetAccepting(identity.UserID, req.AcceptMessages)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
				Success: false, Message: "User not found and, hence, not updated",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false, Message: "Failed to update user status to accept messages",
		})
	}

	return c.JSON(dto.AcceptUpdateResponse{
		Success:     true,
		Message:     "Message acceptance status updated successfully",
		UpdatedUser: *updated,
	})
}

func (h *MessageHandler) GetAcceptMessages(c *fiber.Ctx) error {
	identity, err := session.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
			Success: false, Message: "User not authenticated",
		})
	}

	accepting, err := h.messageService.AcceptingStatus(identity.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
				Success: false, Message: "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false, Message: "Error in getting message acceptance status",
		})
	}

	return c.JSON(dto.AcceptStatusResponse{
		Success:            true,
		Message:            "User found successfully",
		IsAcceptingMessage: accepting,
	})
}

func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	var req dto.SendMessageRequest
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

	if err := h.messageService.Submit(req.Username, req.Content); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
				Success: false, Message: "User not found",
			})
		case errors.Is(err, services.ErrNotAccepting):
			return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
				Success: false, Message: "User is not accepting messages",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
				Success: false, Message: "Internal server error while sending message",
			})
		}
	}

	return c.JSON(dto.APIResponse{
		Success: true, Message: "Message sent successfully",
	})
}

func (h *MessageHandler) GetMessages(c *fiber.Ctx) error {
	identity, err := session.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
			Success: false, Message: "User not authenticated",
		})
	}

	messages, err := h.messageService.List(identity.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
				Success: false, Message: "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false, Message: "Error in getting messages",
		})
	}

	return c.JSON(dto.MessagesResponse{
		Success:  true,
		Message:  "Messages retrieved successfully",
		Messages: messages,
	})
}

func (h *MessageHandler) DeleteMessage(c *fiber.Ctx) error {
	identity, err := session.FromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
			Success: false, Message: "User not authenticated",
		})
	}

	messageID, err := uuid.Parse(c.Params("messageId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
			Success: false, Message: "Invalid message ID",
		})
	}

	if err := h.messageService.Delete(identity.UserID, messageID); err != nil {
		if errors.Is(err, services.ErrMessageNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
				Success: false, Message: "Message not found or already deleted",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false, Message: "Error deleting message",
		})
	}

	return c.JSON(dto.APIResponse{
		Success: true, Message: "Message deleted successfully",
	})
}
