package services

import (
	"context"
	"sort"
	"time"

	"truebite-api/models"

	"github.com/shopspring/decimal"
)

type AnalyticsService struct {
	*base
	defaultFee decimal.Decimal
}

type DashboardStats struct {
	TotalUsers           int64                        `json:"total_users"`
	PendingRegistrations int64                        `json:"pending_registrations"`
	TotalOrders          int64                        `json:"total_orders"`
	PendingComplaints    int64                        `json:"pending_complaints"`
	ActiveDeliveries     int64                        `json:"active_deliveries"`
	DailyRevenue         decimal.Decimal              `json:"daily_revenue"`
	OrderSummary         map[models.OrderStatus]int64 `json:"order_summary"`
}

// DashboardStats aggregates the manager's overview
func (s *AnalyticsService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &DashboardStats{OrderSummary: map[models.OrderStatus]int64{}}

	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, storeErr(err, "count users")
	}
	if err := db.Model(&models.User{}).Where("status = ?", models.ApprovalPending).
		Count(&stats.PendingRegistrations).Error; err != nil {
		return nil, storeErr(err, "count pending users")
	}
	if err := db.Model(&models.Complaint{}).Where("status = ?", models.ComplaintPending).
		Count(&stats.PendingComplaints).Error; err != nil {
		return nil, storeErr(err, "count complaints")
	}

	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	if err := db.Model(&models.Order{}).Select("status, count(*) as count").Group("status").Scan(&rows).Error; err != nil {
		return nil, storeErr(err, "summarise orders")
	}
	for _, r := range rows {
		stats.OrderSummary[r.Status] = r.Count
		stats.TotalOrders += r.Count
	}
	stats.ActiveDeliveries = stats.OrderSummary[models.StatusAssigned] + stats.OrderSummary[models.StatusOutForDelivery]

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var today []models.Order
	err := db.Select("total_price").
		Where("created_at >= ? AND status NOT IN ?", dayStart,
			[]models.OrderStatus{models.StatusCancelled, models.StatusFailedDelivery}).
		Find(&today).Error
	if err != nil {
		return nil, storeErr(err, "daily revenue")
	}
	stats.DailyRevenue = decimal.Zero
	for _, o := range today {
		stats.DailyRevenue = stats.DailyRevenue.Add(o.TotalPrice)
	}
	return stats, nil
}

type DeliveryAnalytics struct {
	TotalDeliveries     int             `json:"total_deliveries"`
	CompletedDeliveries int             `json:"completed_deliveries"`
	FailedDeliveries    int             `json:"failed_deliveries"`
	AverageRating       float64         `json:"average_rating"`
	TotalEarnings       decimal.Decimal `json:"total_earnings"`
	AverageDeliveryTime float64         `json:"average_delivery_time"` // minutes, from accepted bids
}

func (s *AnalyticsService) DeliveryAnalytics(ctx context.Context, driverID string) (*DeliveryAnalytics, error) {
	db := s.db.WithContext(ctx)
	var driver models.User
	if err := db.First(&driver, "id = ?", driverID).Error; err != nil {
		return nil, storeErr(err, "delivery person "+driverID)
	}

	var orders []models.Order
	if err := db.Select("id, status").Where("assigned_driver_id = ?", driverID).Find(&orders).Error; err != nil {
		return nil, storeErr(err, "list deliveries")
	}
	out := &DeliveryAnalytics{
		TotalDeliveries: len(orders),
		AverageRating:   driver.ReputationScore,
		TotalEarnings:   decimal.Zero,
	}
	delivered := map[string]bool{}
	for _, o := range orders {
		switch o.Status {
		case models.StatusDelivered:
			out.CompletedDeliveries++
			delivered[o.ID] = true
		case models.StatusFailedDelivery:
			out.FailedDeliveries++
		}
	}

	var accepted []models.DeliveryBid
	if err := db.Where("delivery_person_id = ? AND status = ?", driverID, models.BidAccepted).Find(&accepted).Error; err != nil {
		return nil, storeErr(err, "list accepted bids")
	}
	minutes := 0
	for _, b := range accepted {
		minutes += b.EstimatedTime
		if !delivered[b.OrderID] {
			continue
		}
		fee := s.defaultFee
		if b.ProposedFee != nil {
			fee = *b.ProposedFee
		}
		out.TotalEarnings = out.TotalEarnings.Add(fee)
	}
	if len(accepted) > 0 {
		out.AverageDeliveryTime = float64(minutes) / float64(len(accepted))
	}
	return out, nil
}

type PopularDish struct {
	DishID     string `json:"dish_id"`
	DishName   string `json:"dish_name"`
	OrderCount int    `json:"order_count"`
}

type ChefAnalytics struct {
	TotalOrders     int             `json:"total_orders"`
	CompletedOrders int             `json:"completed_orders"`
	AverageRating   float64         `json:"average_rating"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	PopularDishes   []PopularDish   `json:"popular_dishes"`
}

// ChefAnalytics summarises the orders that contain the chef's dishes
func (s *AnalyticsService) ChefAnalytics(ctx context.Context, chefID string) (*ChefAnalytics, error) {
	db := s.db.WithContext(ctx)
	out := &ChefAnalytics{TotalRevenue: decimal.Zero, PopularDishes: []PopularDish{}}

	var dishes []models.Dish
	if err := db.Where("chef_id = ?", chefID).Find(&dishes).Error; err != nil {
		return nil, storeErr(err, "list dishes")
	}
	if len(dishes) == 0 {
		return out, nil
	}
	ids := make([]string, len(dishes))
	var ratingSum float64
	for i, d := range dishes {
		ids[i] = d.ID
		ratingSum += d.Rating
	}
	out.AverageRating = ratingSum / float64(len(dishes))

	var lines []struct {
		OrderID  string
		DishID   string
		Name     string
		Quantity int
		Price    decimal.Decimal
		Status   models.OrderStatus
	}
	err := db.Table("order_items").
		Select("order_items.order_id, order_items.dish_id, order_items.name, order_items.quantity, order_items.price, orders.status").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.dish_id IN ?", ids).
		Scan(&lines).Error
	if err != nil {
		return nil, storeErr(err, "chef order lines")
	}

	seen := map[string]bool{}
	completed := map[string]bool{}
	counts := map[string]*PopularDish{}
	for _, l := range lines {
		seen[l.OrderID] = true
		if l.Status == models.StatusDelivered {
			completed[l.OrderID] = true
			out.TotalRevenue = out.TotalRevenue.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
		p, ok := counts[l.DishID]
		if !ok {
			p = &PopularDish{DishID: l.DishID, DishName: l.Name}
			counts[l.DishID] = p
		}
		p.OrderCount += l.Quantity
	}
	out.TotalOrders = len(seen)
	out.CompletedOrders = len(completed)

	for _, p := range counts {
		out.PopularDishes = append(out.PopularDishes, *p)
	}
	sort.Slice(out.PopularDishes, func(i, j int) bool {
		a, b := out.PopularDishes[i], out.PopularDishes[j]
		if a.OrderCount != b.OrderCount {
			return a.OrderCount > b.OrderCount
		}
		return a.DishName < b.DishName
	})
	if len(out.PopularDishes) > 5 {
		out.PopularDishes = out.PopularDishes[:5]
	}
	return out, nil
}
