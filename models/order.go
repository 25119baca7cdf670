package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus represents all possible states of an order
type OrderStatus string

const (
	StatusCreated          OrderStatus = "CREATED"
	StatusInKitchen        OrderStatus = "IN_KITCHEN"
	StatusReadyForDelivery OrderStatus = "READY_FOR_DELIVERY"
	StatusAssigned         OrderStatus = "ASSIGNED"
	StatusOutForDelivery   OrderStatus = "OUT_FOR_DELIVERY"
	StatusDelivered        OrderStatus = "DELIVERED"
	StatusCancelled        OrderStatus = "CANCELLED"
	StatusFailedDelivery   OrderStatus = "FAILED_DELIVERY"
)

var orderStatuses = map[OrderStatus]bool{
	StatusCreated:          true,
	StatusInKitchen:        true,
	StatusReadyForDelivery: true,
	StatusAssigned:         true,
	StatusOutForDelivery:   true,
	StatusDelivered:        true,
	StatusCancelled:        true,
	StatusFailedDelivery:   true,
}

func (s OrderStatus) Valid() bool { return orderStatuses[s] }

type Order struct {
	ID                    string               `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID            string               `json:"customer_id" gorm:"not null;index" validate:"required"`
	CustomerName          string               `json:"customer_name" gorm:"not null"`
	Status                OrderStatus          `json:"status" gorm:"not null;default:'CREATED';index" validate:"required"`
	TotalPrice            decimal.Decimal      `json:"total_price" gorm:"type:decimal(10,2);not null" validate:"gte=0"`
	DeliveryAddress       string               `json:"delivery_address"`
	AssignedDriverID      *string              `json:"assigned_driver_id" gorm:"index"`
	AssignedDriverName    string               `json:"assigned_driver_name,omitempty"`
	AssignedAt            *time.Time           `json:"assigned_at,omitempty"`
	EstimatedDeliveryTime *time.Time           `json:"estimated_delivery_time,omitempty"`
	Items                 []OrderItem          `json:"items" gorm:"foreignKey:OrderID" validate:"required,min=1,dive"`
	StatusHistory         []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt             time.Time            `json:"created_at" gorm:"index"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = StatusCreated
	}
	return Validate(o)
}

// CalculateTotal sums price × quantity over the given lines
func CalculateTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// OrderItem is a snapshot of a dish at checkout time
type OrderItem struct {
	ID       string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID  string          `json:"order_id" gorm:"not null;index"`
	Position int             `json:"-" gorm:"not null"`
	DishID   string          `json:"dish_id" gorm:"not null;index" validate:"required"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity" gorm:"not null" validate:"gte=1"`
	Price    decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null" validate:"gte=0"`
}

func (it *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	return nil
}

func (it OrderItem) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// OrderStatusHistory tracks every status change
type OrderStatusHistory struct {
	ID         string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID    string      `json:"order_id" gorm:"not null;index"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  string      `json:"changed_by"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (h *OrderStatusHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}
