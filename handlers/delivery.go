package handlers

import (
	"net/http"

	"truebite-api/middleware"
	"truebite-api/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BidRequest struct {
	EstimatedTime int              `json:"estimated_time" binding:"required,gt=0"`
	ProposedFee   *decimal.Decimal `json:"proposed_fee" binding:"omitempty,gte=0"`
}

// GetAvailableOrders shows orders READY_FOR_DELIVERY that have no driver assigned
func (h *Handler) GetAvailableOrders(c *gin.Context) {
	orders, err := h.svc.Orders.ListReadyForBidding(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

func (h *Handler) SubmitBid(c *gin.Context) {
	var req BidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	bid, err := h.svc.Bids.SubmitBid(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"), services.BidInput{
		EstimatedTime: req.EstimatedTime,
		ProposedFee:   req.ProposedFee,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Bid submitted", "bid": bid})
}

func (h *Handler) GetMyBids(c *gin.Context) {
	bids, err := h.svc.Bids.ListMyBids(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(bids), "bids": bids})
}

// GetMyDeliveries returns the orders assigned to the driver that are not finished
func (h *Handler) GetMyDeliveries(c *gin.Context) {
	orders, err := h.svc.Orders.ListActiveDeliveries(c.Request.Context(), middleware.SessionFrom(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// UpdateDeliveryStatus is used for pickup, drop-off and failed deliveries
func (h *Handler) UpdateDeliveryStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.changeStatus(c, req.Status, req.Note)
}

func (h *Handler) DeliveryAnalytics(c *gin.Context) {
	stats, err := h.svc.Analytics.DeliveryAnalytics(c.Request.Context(), middleware.SessionFrom(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analytics": stats})
}
