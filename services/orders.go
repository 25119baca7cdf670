package services

import (
	"context"
	"fmt"
	"strings"

	"truebite-api/events"
	"truebite-api/models"
	"truebite-api/statemachine"

	"gorm.io/gorm"
)

type OrderService struct {
	*base
}

// CartLine is one requested dish; price and name are taken from the store
type CartLine struct {
	DishID   string
	Quantity int
}

// Checkout turns a cart into a CREATED order paid from the caller's deposit.
// An insufficient deposit earns the customer a warning and no order.
func (s *OrderService) Checkout(ctx context.Context, session Session, cart []CartLine, address string) (*models.Order, error) {
	if err := session.requireCustomer(); err != nil {
		return nil, err
	}
	if len(cart) == 0 {
		return nil, validationf("cart is empty")
	}
	for _, line := range cart {
		if line.DishID == "" {
			return nil, validationf("cart line without dish")
		}
		if line.Quantity < 1 {
			return nil, validationf("quantity for dish %s must be at least 1", line.DishID)
		}
	}

	var (
		order    *models.Order
		rejected error
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.User
		if err := tx.First(&customer, "id = ?", session.UserID).Error; err != nil {
			return storeErr(err, "customer "+session.UserID)
		}
		if customer.Blacklisted {
			return forbiddenf("customer account is restricted")
		}

		items := make([]models.OrderItem, 0, len(cart))
		for i, line := range cart {
			var dish models.Dish
			if err := tx.First(&dish, "id = ?", line.DishID).Error; err != nil {
				return storeErr(err, "dish "+line.DishID)
			}
			if !dish.Available {
				return validationf("dish '%s' is not available", dish.Name)
			}
			if dish.VIPOnly && customer.Role != models.RoleVIP {
				return forbiddenf("dish '%s' is VIP-only", dish.Name)
			}
			items = append(items, models.OrderItem{
				Position: i,
				DishID:   dish.ID,
				Name:     dish.Name,
				Quantity: line.Quantity,
				Price:    dish.Price,
			})
		}
		total := models.CalculateTotal(items)

		if customer.Deposit.LessThan(total) {
			// Commit the warning even though the order is refused
			if err := incrementWarnings(tx, customer.ID); err != nil {
				return err
			}
			rejected = fmt.Errorf("%w: balance %s is below order total %s; please add funds, a warning has been added",
				ErrInsufficientDeposit, customer.Deposit.StringFixed(2), total.StringFixed(2))
			return nil
		}

		order = &models.Order{
			CustomerID:      customer.ID,
			CustomerName:    customer.Name,
			Status:          models.StatusCreated,
			TotalPrice:      total,
			DeliveryAddress: strings.TrimSpace(address),
			Items:           items,
		}
		if err := tx.Create(order).Error; err != nil {
			return storeErr(err, "create order")
		}
		if err := recordHistory(tx, order.ID, "", models.StatusCreated, customer.ID, "Order placed by customer"); err != nil {
			return err
		}
		if _, err := adjustBalance(tx, &customer, models.TransactionPayment, total, &order.ID, "Order payment"); err != nil {
			return err
		}
		err := tx.Model(&models.User{}).Where("id = ?", customer.ID).Updates(map[string]interface{}{
			"order_count": gorm.Expr("order_count + ?", 1),
			"total_spent": gorm.Expr("total_spent + ?", total),
		}).Error
		return storeErr(err, "update order stats")
	})
	if err != nil {
		return nil, err
	}
	if rejected != nil {
		s.logger.WarnContext(ctx, "checkout rejected", "customer_id", session.UserID, "error", rejected)
		return nil, rejected
	}

	s.publish(ctx, events.Event{
		Type:    events.OrderCreated,
		OrderID: order.ID,
		ActorID: session.UserID,
		Payload: map[string]interface{}{"total_price": order.TotalPrice.StringFixed(2), "items": len(order.Items)},
	})
	return order, nil
}

// UpdateStatus moves an order along the transition table on behalf of the caller
func (s *OrderService) UpdateStatus(ctx context.Context, session Session, orderID string, target models.OrderStatus, note string) (*models.Order, error) {
	actor, err := session.actor()
	if err != nil {
		return nil, err
	}
	if !target.Valid() {
		return nil, validationf("unknown status %q", target)
	}
	if target == models.StatusAssigned {
		return nil, fmt.Errorf("%w: orders are assigned by accepting a delivery bid", ErrInvalidTransition)
	}

	var from models.OrderStatus
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return storeErr(err, "order "+orderID)
		}
		switch actor {
		case statemachine.ActorCustomer:
			if order.CustomerID != session.UserID {
				return forbiddenf("order %s does not belong to you", orderID)
			}
		case statemachine.ActorDelivery:
			if order.AssignedDriverID == nil || *order.AssignedDriverID != session.UserID {
				return forbiddenf("you are not the assigned driver for order %s", orderID)
			}
		}
		if err := statemachine.CanTransition(order.Status, target, actor); err != nil {
			s.logger.WarnContext(ctx, "illegal status transition refused",
				"order_id", orderID, "from", order.Status, "to", target, "actor", actor, "user_id", session.UserID)
			return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}

		from = order.Status
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, order.Status).
			Update("status", target)
		if res.Error != nil {
			return storeErr(res.Error, "update order status")
		}
		if res.RowsAffected == 0 {
			return conflictf("order %s changed concurrently", orderID)
		}
		if note == "" {
			note = fmt.Sprintf("Status set by %s", actor)
		}
		if err := recordHistory(tx, order.ID, from, target, session.UserID, note); err != nil {
			return err
		}

		if target == models.StatusCancelled {
			return refund(tx, &order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.OrderStatusChanged,
		OrderID: orderID,
		ActorID: session.UserID,
		Payload: map[string]interface{}{"from": from, "to": target},
	})
	return s.load(ctx, orderID)
}

// refund returns a cancelled order's payment to its customer
func refund(tx *gorm.DB, order *models.Order) error {
	if !order.TotalPrice.IsPositive() {
		return nil
	}
	var customer models.User
	if err := tx.First(&customer, "id = ?", order.CustomerID).Error; err != nil {
		return storeErr(err, "customer "+order.CustomerID)
	}
	_, err := adjustBalance(tx, &customer, models.TransactionRefund, order.TotalPrice, &order.ID, "Refund for cancelled order")
	return err
}

func recordHistory(tx *gorm.DB, orderID string, from, to models.OrderStatus, by, note string) error {
	h := &models.OrderStatusHistory{
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  by,
		Note:       note,
	}
	return storeErr(tx.Create(h).Error, "record status history")
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	})
}

func (s *OrderService) load(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := withItems(s.db.WithContext(ctx)).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, storeErr(err, "order "+id)
	}
	return &order, nil
}

// Get returns an order with its items and history if the caller may see it
func (s *OrderService) Get(ctx context.Context, session Session, id string) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case session.Role.IsCustomer():
		if order.CustomerID != session.UserID {
			return nil, forbiddenf("order %s does not belong to you", id)
		}
	case session.Role == models.RoleDelivery:
		ready := order.Status == models.StatusReadyForDelivery && order.AssignedDriverID == nil
		mine := order.AssignedDriverID != nil && *order.AssignedDriverID == session.UserID
		if !ready && !mine {
			return nil, forbiddenf("order %s is not available to you", id)
		}
	case session.Role == models.RoleChef, session.Role == models.RoleManager:
	default:
		return nil, forbiddenf("role %q may not view orders", session.Role)
	}
	return order, nil
}

type OrderFilter struct {
	Status     models.OrderStatus
	Statuses   []models.OrderStatus
	CustomerID string
	DriverID   string
}

// List returns orders newest first
func (s *OrderService) List(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	query := withItems(s.db.WithContext(ctx))
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if len(f.Statuses) > 0 {
		query = query.Where("status IN ?", f.Statuses)
	}
	if f.CustomerID != "" {
		query = query.Where("customer_id = ?", f.CustomerID)
	}
	if f.DriverID != "" {
		query = query.Where("assigned_driver_id = ?", f.DriverID)
	}
	var orders []models.Order
	err := query.Order("created_at desc").Find(&orders).Error
	return orders, storeErr(err, "list orders")
}

// ListReadyForBidding returns unassigned orders waiting for a driver, oldest first
func (s *OrderService) ListReadyForBidding(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := withItems(s.db.WithContext(ctx)).
		Where("status = ? AND assigned_driver_id IS NULL", models.StatusReadyForDelivery).
		Order("created_at asc").
		Find(&orders).Error
	return orders, storeErr(err, "list orders ready for bidding")
}

// ListActiveDeliveries returns the driver's orders that are assigned or on the road
func (s *OrderService) ListActiveDeliveries(ctx context.Context, driverID string) ([]models.Order, error) {
	var orders []models.Order
	err := withItems(s.db.WithContext(ctx)).
		Where("assigned_driver_id = ? AND status IN ?", driverID,
			[]models.OrderStatus{models.StatusAssigned, models.StatusOutForDelivery}).
		Order("updated_at desc").
		Find(&orders).Error
	return orders, storeErr(err, "list active deliveries")
}
