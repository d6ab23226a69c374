package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/stocki/internal/apperr"
	"github.com/example/stocki/internal/services"
)

// AuthHandler exposes the registration and login flow.
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type codeRequest struct {
	UserID string `json:"userId"`
	Code   string `json:"code"`
}

type userRequest struct {
	UserID string `json:"userId"`
}

func parseUserID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, apperr.Validation("userId is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid userId")
	}
	return id, nil
}

// Register creates a new, unverified account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	res, err := h.auth.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// VerifyAccount activates an account with its emailed code.
func (h *AuthHandler) VerifyAccount(c *fiber.Ctx) error {
	var req codeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	userID, err := parseUserID(req.UserID)
	if err != nil {
		return err
	}

	if err := h.auth.VerifyAccount(c.UserContext(), userID, req.Code); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "account verified"})
}

// ResendVerification emails a fresh verification code.
func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	var req userRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	userID, err := parseUserID(req.UserID)
	if err != nil {
		return err
	}

	if err := h.auth.ResendVerification(c.UserContext(), userID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "verification code sent"})
}

// Login checks credentials and emails a second-factor code.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	res, err := h.auth.Login(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// VerifyLogin exchanges the second-factor code for a session token.
func (h *AuthHandler) VerifyLogin(c *fiber.Ctx) error {
	var req codeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	userID, err := parseUserID(req.UserID)
	if err != nil {
		return err
	}

	session, err := h.auth.VerifyLogin(c.UserContext(), userID, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(session)
}

// Resend2FA emails a fresh second-factor code.
func (h *AuthHandler) Resend2FA(c *fiber.Ctx) error {
	var req userRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	userID, err := parseUserID(req.UserID)
	if err != nil {
		return err
	}

	if err := h.auth.Resend2FA(c.UserContext(), userID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "login code sent"})
}
