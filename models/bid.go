package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BidStatus string

const (
	BidPending  BidStatus = "PENDING"
	BidAccepted BidStatus = "ACCEPTED"
	BidDeclined BidStatus = "DECLINED"
)

// DeliveryBid is a delivery person's offer to fulfil a ready order
type DeliveryBid struct {
	ID                 string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID            string           `json:"order_id" gorm:"not null;index" validate:"required"`
	DeliveryPersonID   string           `json:"delivery_person_id" gorm:"not null;index" validate:"required"`
	DeliveryPersonName string           `json:"delivery_person_name"`
	EstimatedTime      int              `json:"estimated_time" gorm:"not null" validate:"gt=0"` // minutes
	ProposedFee        *decimal.Decimal `json:"proposed_fee,omitempty" gorm:"type:decimal(10,2)" validate:"omitempty,gte=0"`
	Status             BidStatus        `json:"status" gorm:"not null;default:'PENDING';index" validate:"required"`
	ReputationScore    float64          `json:"reputation_score" gorm:"not null;default:0"`
	DecidedAt          *time.Time       `json:"decided_at,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

func (DeliveryBid) TableName() string { return "bids" }

func (b *DeliveryBid) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = BidPending
	}
	return Validate(b)
}
