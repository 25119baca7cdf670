package routes

import (
	"truebite-api/handlers"
	"truebite-api/middleware"
	"truebite-api/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators lets binding tags such as gt=0 compare decimal amounts
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		models.RegisterValidators(v)
	}
}

func SetupRoutes(r *gin.Engine, h *handlers.Handler, secret []byte, users middleware.UserLookup) {
	RegisterValidators()
	authRequired := middleware.AuthRequired(secret, users)

	r.GET("/health", h.Health)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)

		public.GET("/menu", h.ListMenu)
		public.GET("/dishes/:id", h.GetDish)

		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(authRequired)
	{
		auth.GET("/profile", h.GetProfile)
	}

	// ── Customer routes ────────────────────────────────────────────
	customer := r.Group("/api/customer")
	customer.Use(authRequired, middleware.RoleRequired(models.RoleRegistered, models.RoleVIP))
	{
		customer.POST("/deposit", h.Deposit)
		customer.GET("/transactions", h.GetTransactions)

		customer.POST("/checkout", h.Checkout)
		customer.GET("/orders", h.GetMyOrders)
		customer.GET("/orders/:id", h.GetOrderDetail)
		customer.PUT("/orders/:id/cancel", h.CancelOrder)

		customer.POST("/complaints", h.FileComplaint)
		customer.GET("/complaints", h.GetMyComplaints)
	}

	// ── Chef routes ────────────────────────────────────────────────
	chef := r.Group("/api/chef")
	chef.Use(authRequired, middleware.RoleRequired(models.RoleChef))
	{
		chef.GET("/orders", h.GetKitchenOrders)
		chef.PUT("/orders/:id/status", h.UpdateOrderStatus)

		chef.GET("/dishes", h.ListMyDishes)
		chef.POST("/dishes", h.CreateDish)
		chef.PUT("/dishes/:id", h.UpdateDish)

		chef.GET("/analytics", h.ChefAnalytics)
	}

	// ── Delivery routes ────────────────────────────────────────────
	delivery := r.Group("/api/delivery")
	delivery.Use(authRequired, middleware.RoleRequired(models.RoleDelivery))
	{
		delivery.GET("/orders/available", h.GetAvailableOrders)
		delivery.POST("/orders/:id/bids", h.SubmitBid)
		delivery.GET("/bids", h.GetMyBids)
		delivery.GET("/orders/active", h.GetMyDeliveries)
		delivery.PUT("/orders/:id/status", h.UpdateDeliveryStatus)
		delivery.GET("/analytics", h.DeliveryAnalytics)
	}

	// ── Manager routes ─────────────────────────────────────────────
	manager := r.Group("/api/manager")
	manager.Use(authRequired, middleware.RoleRequired(models.RoleManager))
	{
		manager.GET("/dashboard", h.Dashboard)

		manager.GET("/orders", h.ListOrders)
		manager.PUT("/orders/:id/status", h.ForceOrderStatus)
		manager.GET("/bids", h.ListBids)
		manager.POST("/orders/:id/assign", h.AssignOrder)

		manager.GET("/complaints", h.ListComplaints)
		manager.PUT("/complaints/:id/resolve", h.ResolveComplaint)

		manager.GET("/users/pending", h.ListPendingUsers)
		manager.GET("/employees", h.ListEmployees)
		manager.PUT("/users/:id/approve", h.ApproveUser)
		manager.PUT("/users/:id/reject", h.RejectUser)
		manager.PUT("/users/:id/role", h.UpdateUserRole)
		manager.PUT("/users/:id/blacklist", h.BlacklistUser)
		manager.POST("/users/:id/warnings", h.WarnUser)
	}
}
