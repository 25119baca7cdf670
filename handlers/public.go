package handlers

import (
	"net/http"

	"truebite-api/models"
	"truebite-api/services"
	"truebite-api/statemachine"

	"github.com/gin-gonic/gin"
)

// ListMenu returns every available dish (public)
func (h *Handler) ListMenu(c *gin.Context) {
	dishes, err := h.svc.Dishes.ListMenu(c.Request.Context(), services.MenuFilter{
		ChefID:   c.Query("chef_id"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(dishes), "menu": dishes})
}

func (h *Handler) GetDish(c *gin.Context) {
	dish, err := h.svc.Dishes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dish": dish})
}

// GetStateMachineInfo returns the full state machine for informational purposes
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	terminal := []models.OrderStatus{}
	for _, s := range []models.OrderStatus{
		models.StatusCreated, models.StatusInKitchen, models.StatusReadyForDelivery, models.StatusAssigned,
		models.StatusOutForDelivery, models.StatusDelivered, models.StatusCancelled, models.StatusFailedDelivery,
	} {
		if statemachine.IsTerminal(s) {
			terminal = append(terminal, s)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   statemachine.GetAllTransitions(),
		"terminal_states": terminal,
		"description":     "TrueBite Order Lifecycle State Machine",
	})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "TrueBite Order & Delivery API",
	})
}
