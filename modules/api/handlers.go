package api

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/gofiber/fiber/v2"

	"github.com/example/chat-backend/modules/auth"
	"github.com/example/chat-backend/modules/history"
)

// Handlers contains the REST handlers.
type Handlers struct {
	authContainer mono.ServiceContainer
	authPort      auth.AuthPort
	historyPort   history.HistoryPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authContainer mono.ServiceContainer, authPort auth.AuthPort, historyPort history.HistoryPort) *Handlers {
	return &Handlers{
		authContainer: authContainer,
		authPort:      authPort,
		historyPort:   historyPort,
	}
}

// Register handles POST /api/auth/register.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return badRequest(c, "Name, email and password are required")
	}

	authReq := auth.RegisterRequest{Name: req.Name, Email: req.Email, Password: req.Password}
	var resp auth.AuthResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(), h.authContainer, "register", json.Marshal, json.Unmarshal, &authReq, &resp,
	); err != nil {
		return h.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login handles POST /api/auth/login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	authReq := auth.LoginRequest{Email: req.Email, Password: req.Password}
	var resp auth.AuthResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(), h.authContainer, "login", json.Marshal, json.Unmarshal, &authReq, &resp,
	); err != nil {
		return h.handleAuthError(c, err)
	}

	return c.JSON(resp)
}

// Me handles GET /api/auth/me.
func (h *Handlers) Me(c *fiber.Ctx) error {
	claims := claimsFromContext(c)
	if claims == nil {
		return unauthorized(c, "User not authenticated")
	}

	info, err := h.authPort.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to retrieve user",
		})
	}
	return c.JSON(fiber.Map{"user": info})
}

// GroupMessages handles GET /api/chat/messages.
func (h *Handlers) GroupMessages(c *fiber.Ctx) error {
	room := c.Query("room")
	limit := c.QueryInt("limit", 0)

	messages, err := h.historyPort.GroupMessages(c.UserContext(), room, limit)
	if err != nil {
		return internalError(c, "Failed to load messages", err)
	}
	return c.JSON(fiber.Map{
		"messages": messages,
		"total":    len(messages),
	})
}

// DeleteGroupMessage handles DELETE /api/chat/messages/:id.
func (h *Handlers) DeleteGroupMessage(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Message id is required")
	}

	if err := h.historyPort.DeleteGroupMessage(c.UserContext(), id); err != nil {
		// Errors cross the service boundary as strings; the store's miss
		// sentinel is "message not found".
		if strings.Contains(err.Error(), "message not found") {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "Message not found",
			})
		}
		return internalError(c, "Failed to delete message", err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}

// Conversations handles GET /api/direct/conversations.
func (h *Handlers) Conversations(c *fiber.Ctx) error {
	claims := claimsFromContext(c)
	if claims == nil {
		return unauthorized(c, "User not authenticated")
	}

	conversations, err := h.historyPort.Conversations(c.UserContext(), claims.UserID)
	if err != nil {
		return internalError(c, "Failed to load conversations", err)
	}
	return c.JSON(fiber.Map{"conversations": conversations})
}

// DirectMessages handles GET /api/direct/messages/:conversationId.
func (h *Handlers) DirectMessages(c *fiber.Ctx) error {
	conversationID := c.Params("conversationId")
	if conversationID == "" {
		return badRequest(c, "Conversation id is required")
	}
	limit := c.QueryInt("limit", 0)

	messages, err := h.historyPort.DirectMessages(c.UserContext(), conversationID, limit)
	if err != nil {
		return internalError(c, "Failed to load messages", err)
	}
	return c.JSON(fiber.Map{
		"conversationId": conversationID,
		"messages":       messages,
	})
}

// MarkRead handles PATCH /api/direct/read/:conversationId.
func (h *Handlers) MarkRead(c *fiber.Ctx) error {
	claims := claimsFromContext(c)
	if claims == nil {
		return unauthorized(c, "User not authenticated")
	}

	conversationID := c.Params("conversationId")
	if conversationID == "" {
		return badRequest(c, "Conversation id is required")
	}

	updated, err := h.historyPort.MarkRead(c.UserContext(), conversationID, claims.UserID)
	if err != nil {
		return internalError(c, "Failed to mark conversation read", err)
	}
	return c.JSON(fiber.Map{"updated": updated})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}

func internalError(c *fiber.Ctx, message string, err error) error {
	log.Printf("[api] %s: %v", message, err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: message,
	})
}

// handleAuthError maps auth service failures to HTTP responses without
// exposing internals.
func (h *Handlers) handleAuthError(c *fiber.Ctx, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "invalid email or password"):
		return unauthorized(c, "Invalid email or password")
	case strings.Contains(errStr, "already exists"):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "User with this email already exists",
		})
	case strings.Contains(errStr, "invalid email format"):
		return badRequest(c, "Invalid email format")
	case strings.Contains(errStr, "name is required"):
		return badRequest(c, "Name is required")
	case strings.Contains(errStr, "password must be at least"):
		return badRequest(c, "Password must be at least 8 characters")
	case strings.Contains(errStr, "password must be at most"):
		return badRequest(c, "Password must be at most 72 characters")
	default:
		return internalError(c, "An internal error occurred", err)
	}
}
