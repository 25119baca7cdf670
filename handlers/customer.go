package handlers

import (
	"net/http"

	"truebite-api/middleware"
	"truebite-api/models"
	"truebite-api/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required,gt=0"`
}

type CheckoutRequest struct {
	DeliveryAddress string `json:"delivery_address"`
	Items           []struct {
		DishID   string `json:"dish_id" binding:"required"`
		Quantity int    `json:"quantity" binding:"required,min=1"`
	} `json:"items" binding:"required,min=1,dive"`
}

type ComplaintRequest struct {
	OrderID     string                 `json:"order_id" binding:"required"`
	TargetType  models.ComplaintTarget `json:"target_type" binding:"required"`
	TargetID    string                 `json:"target_id"`
	TargetName  string                 `json:"target_name"`
	Description string                 `json:"description" binding:"required"`
}

// Deposit tops up the customer's prepaid balance
func (h *Handler) Deposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.svc.Users.Deposit(c.Request.Context(), middleware.SessionFrom(c), req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Funds added",
		"deposit": user.Deposit,
	})
}

// Checkout places an order paid from the deposit (customer only)
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cart := make([]services.CartLine, len(req.Items))
	for i, it := range req.Items {
		cart[i] = services.CartLine{DishID: it.DishID, Quantity: it.Quantity}
	}
	order, err := h.svc.Orders.Checkout(c.Request.Context(), middleware.SessionFrom(c), cart, req.DeliveryAddress)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// GetMyOrders returns all orders for the logged-in customer
func (h *Handler) GetMyOrders(c *gin.Context) {
	orders, err := h.svc.Orders.List(c.Request.Context(), services.OrderFilter{
		CustomerID: middleware.SessionFrom(c).UserID,
		Status:     models.OrderStatus(c.Query("status")),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// GetOrderDetail returns a single order with items and status history
func (h *Handler) GetOrderDetail(c *gin.Context) {
	order, err := h.svc.Orders.Get(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// CancelOrder lets a customer cancel an order the kitchen has not started
func (h *Handler) CancelOrder(c *gin.Context) {
	h.changeStatus(c, models.StatusCancelled, "Cancelled by customer")
}

func (h *Handler) FileComplaint(c *gin.Context) {
	var req ComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	complaint, err := h.svc.Complaints.Create(c.Request.Context(), middleware.SessionFrom(c), services.ComplaintInput{
		OrderID:     req.OrderID,
		TargetType:  req.TargetType,
		TargetID:    req.TargetID,
		TargetName:  req.TargetName,
		Description: req.Description,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Complaint submitted", "complaint": complaint})
}

func (h *Handler) GetMyComplaints(c *gin.Context) {
	complaints, err := h.svc.Complaints.List(c.Request.Context(), middleware.SessionFrom(c),
		models.ComplaintStatus(c.Query("status")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(complaints), "complaints": complaints})
}

func (h *Handler) GetTransactions(c *gin.Context) {
	txs, err := h.svc.Users.ListTransactions(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(txs), "transactions": txs})
}
