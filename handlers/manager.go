package handlers

import (
	"errors"
	"io"
	"net/http"

	"truebite-api/middleware"
	"truebite-api/models"
	"truebite-api/services"

	"github.com/gin-gonic/gin"
)

type AssignRequest struct {
	BidID string `json:"bid_id" binding:"required"`
}

type ResolveRequest struct {
	Resolution   models.ComplaintStatus `json:"resolution" binding:"required"`
	ManagerNotes string                 `json:"manager_notes"`
}

type RoleRequest struct {
	Role models.UserRole `json:"role" binding:"required"`
}

type BlacklistRequest struct {
	Blacklisted *bool `json:"blacklisted" binding:"required"`
}

type WarningRequest struct {
	Reason string `json:"reason"`
}

// ListOrders returns all orders, filterable by status, customer and driver
func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.svc.Orders.List(c.Request.Context(), services.OrderFilter{
		Status:     models.OrderStatus(c.Query("status")),
		CustomerID: c.Query("customer_id"),
		DriverID:   c.Query("driver_id"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// ForceOrderStatus lets a manager cancel or fail any open order
func (h *Handler) ForceOrderStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.changeStatus(c, req.Status, req.Note)
}

// ListBids returns pending bids ranked best first; ?order_id= narrows to one order
func (h *Handler) ListBids(c *gin.Context) {
	bids, err := h.svc.Bids.ListPendingBids(c.Request.Context(), middleware.SessionFrom(c), c.Query("order_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(bids), "bids": bids})
}

// AssignOrder accepts a bid, which assigns the order to that delivery person
func (h *Handler) AssignOrder(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.svc.Bids.AcceptBid(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"), req.BidID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Bid accepted and order assigned",
		"order":         res.Order,
		"bid":           res.Bid,
		"declined_bids": res.Declined,
	})
}

func (h *Handler) ListComplaints(c *gin.Context) {
	complaints, err := h.svc.Complaints.List(c.Request.Context(), middleware.SessionFrom(c),
		models.ComplaintStatus(c.Query("status")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(complaints), "complaints": complaints})
}

func (h *Handler) ResolveComplaint(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	complaint, err := h.svc.Complaints.Resolve(c.Request.Context(), middleware.SessionFrom(c),
		c.Param("id"), req.Resolution, req.ManagerNotes)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Complaint resolved", "complaint": complaint})
}

func (h *Handler) ListPendingUsers(c *gin.Context) {
	users, err := h.svc.Users.ListPending(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

func (h *Handler) ListEmployees(c *gin.Context) {
	users, err := h.svc.Users.ListEmployees(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "employees": users})
}

func (h *Handler) ApproveUser(c *gin.Context) {
	user, err := h.svc.Users.Approve(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User approved", "user": user})
}

func (h *Handler) RejectUser(c *gin.Context) {
	user, err := h.svc.Users.Reject(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User rejected", "user": user})
}

func (h *Handler) UpdateUserRole(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.svc.Users.UpdateRole(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"), req.Role)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role updated", "user": user})
}

// BlacklistUser toggles whether a customer may place orders
func (h *Handler) BlacklistUser(c *gin.Context) {
	var req BlacklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.svc.Users.SetBlacklisted(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"), *req.Blacklisted)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restriction updated", "user": user})
}

func (h *Handler) WarnUser(c *gin.Context) {
	var req WarningRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	user, err := h.svc.Users.IssueWarning(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"), req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Warning issued", "user": user})
}

// Dashboard aggregates counts and today's revenue for the manager
func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.svc.Analytics.DashboardStats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dashboard": stats})
}
