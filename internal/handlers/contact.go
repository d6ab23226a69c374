package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/stocki/internal/apperr"
	"github.com/example/stocki/internal/models"
)

// ContactForwarder relays a contact message to the team.
type ContactForwarder interface {
	NotifyContact(ctx context.Context, msg *models.ContactMessage) error
}

// ContactHandler stores public contact form submissions.
type ContactHandler struct {
	db       *gorm.DB
	forward  ContactForwarder
	logger   *slog.Logger
	validate *validator.Validate
}

// NewContactHandler constructs ContactHandler. forward may be nil.
func NewContactHandler(db *gorm.DB, forward ContactForwarder, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{db: db, forward: forward, logger: logger, validate: validator.New()}
}

type contactRequest struct {
	Name    string `json:"name" validate:"required,max=191"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"max=191"`
	Message string `json:"message" validate:"required"`
}

// Submit saves the message and forwards it. Forwarding failures are logged.
func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if err := h.validate.Struct(req); err != nil {
		return apperr.Validation("name, a valid email and message are required")
	}

	msg := models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := h.db.WithContext(c.UserContext()).Create(&msg).Error; err != nil {
		return apperr.Dependency("could not save message", err)
	}

	if h.forward != nil {
		if err := h.forward.NotifyContact(c.UserContext(), &msg); err != nil {
			h.logger.Warn("contact forward failed",
				slog.String("contact_id", msg.ID.String()),
				slog.Any("error", err),
			)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "message received",
		"contactId": msg.ID,
	})
}
