package handlers

import (
	"net/http"

	"truebite-api/middleware"
	"truebite-api/models"
	"truebite-api/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type DishRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Img         string          `json:"img"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price" binding:"gte=0"`
	VIPOnly     bool            `json:"vip_only"`
}

type UpdateDishRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Img         *string          `json:"img"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price" binding:"omitempty,gte=0"`
	Available   *bool            `json:"available"`
	VIPOnly     *bool            `json:"vip_only"`
}

var kitchenQueue = []models.OrderStatus{models.StatusCreated, models.StatusInKitchen, models.StatusReadyForDelivery}

// GetKitchenOrders lists the orders the kitchen is working on; ?status= narrows it to one state
func (h *Handler) GetKitchenOrders(c *gin.Context) {
	filter := services.OrderFilter{Statuses: kitchenQueue}
	if status := c.Query("status"); status != "" {
		filter = services.OrderFilter{Status: models.OrderStatus(status)}
	}
	orders, err := h.svc.Orders.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// UpdateOrderStatus moves an order through the kitchen states
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.changeStatus(c, req.Status, req.Note)
}

func (h *Handler) ListMyDishes(c *gin.Context) {
	dishes, err := h.svc.Dishes.ListByChef(c.Request.Context(), middleware.SessionFrom(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(dishes), "dishes": dishes})
}

func (h *Handler) CreateDish(c *gin.Context) {
	var req DishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	dish, err := h.svc.Dishes.Create(c.Request.Context(), middleware.SessionFrom(c), services.DishInput{
		Name:        req.Name,
		Description: req.Description,
		Img:         req.Img,
		Category:    req.Category,
		Price:       req.Price,
		VIPOnly:     req.VIPOnly,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Dish added", "dish": dish})
}

// UpdateDish applies a partial update to one of the chef's own dishes
func (h *Handler) UpdateDish(c *gin.Context) {
	var req UpdateDishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	dish, err := h.svc.Dishes.Update(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"), services.DishUpdate{
		Name:        req.Name,
		Description: req.Description,
		Img:         req.Img,
		Category:    req.Category,
		Price:       req.Price,
		Available:   req.Available,
		VIPOnly:     req.VIPOnly,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dish updated", "dish": dish})
}

func (h *Handler) ChefAnalytics(c *gin.Context) {
	stats, err := h.svc.Analytics.ChefAnalytics(c.Request.Context(), middleware.SessionFrom(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analytics": stats})
}
