package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"truebite-api/middleware"
	"truebite-api/models"
	"truebite-api/services"
	"truebite-api/statemachine"

	"github.com/gin-gonic/gin"
)

// Handler serves the HTTP API on top of the service layer
type Handler struct {
	svc      *services.Services
	secret   []byte
	tokenTTL time.Duration
	logger   *slog.Logger
}

func New(svc *services.Services, secret []byte, tokenTTL time.Duration, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, secret: secret, tokenTTL: tokenTTL, logger: logger}
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInsufficientDeposit):
		return http.StatusPaymentRequired
	case errors.Is(err, services.ErrExternalService):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	switch status {
	case http.StatusInternalServerError:
		h.logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "Internal server error"})
	case http.StatusBadGateway:
		h.logger.ErrorContext(c.Request.Context(), "dependency failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "A backing service is unavailable, please retry"})
	default:
		c.JSON(status, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

type StatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Note   string             `json:"note"`
}

// changeStatus applies a transition for the caller and explains refusals like the state machine does
func (h *Handler) changeStatus(c *gin.Context, target models.OrderStatus, note string) {
	session := middleware.SessionFrom(c)
	orderID := c.Param("id")

	order, err := h.svc.Orders.UpdateStatus(c.Request.Context(), session, orderID, target, note)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{
			"message": "Order status updated to " + string(order.Status),
			"order":   order,
		})
		return
	}
	if !errors.Is(err, services.ErrInvalidTransition) {
		h.fail(c, err)
		return
	}

	_ = c.Error(err)
	body := gin.H{"error": "Invalid state transition", "reason": err.Error()}
	if current, getErr := h.svc.Orders.Get(c.Request.Context(), session, orderID); getErr == nil {
		body["current_status"] = current.Status
		if actor, ok := statemachine.ActorForRole(session.Role); ok {
			body["valid_next_states"] = statemachine.ValidTransitionsFor(current.Status, actor)
		}
	}
	c.JSON(http.StatusUnprocessableEntity, body)
}
