package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ComplaintStatus string

const (
	ComplaintPending          ComplaintStatus = "PENDING"
	ComplaintResolvedNoAction ComplaintStatus = "RESOLVED_NO_ACTION"
	ComplaintResolvedWarning  ComplaintStatus = "RESOLVED_WARNING"
	ComplaintResolvedRefund   ComplaintStatus = "RESOLVED_REFUND"
	ComplaintCancelled        ComplaintStatus = "CANCELLED"
)

// IsResolution reports whether s is one of the terminal statuses a manager may pick
func (s ComplaintStatus) IsResolution() bool {
	switch s {
	case ComplaintResolvedNoAction, ComplaintResolvedWarning, ComplaintResolvedRefund, ComplaintCancelled:
		return true
	}
	return false
}

type ComplaintTarget string

const (
	TargetChef     ComplaintTarget = "CHEF"
	TargetDelivery ComplaintTarget = "DELIVERY"
	TargetOrder    ComplaintTarget = "ORDER"
)

func (t ComplaintTarget) Valid() bool {
	return t == TargetChef || t == TargetDelivery || t == TargetOrder
}

type Complaint struct {
	ID           string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID      string          `json:"order_id" gorm:"not null;index" validate:"required"`
	CustomerID   string          `json:"customer_id" gorm:"not null;index" validate:"required"`
	CustomerName string          `json:"customer_name"`
	TargetType   ComplaintTarget `json:"target_type" gorm:"not null" validate:"required"`
	TargetID     string          `json:"target_id" validate:"required"`
	TargetName   string          `json:"target_name"`
	Description  string          `json:"description" gorm:"type:text;not null" validate:"required"`
	Status       ComplaintStatus `json:"status" gorm:"not null;default:'PENDING';index" validate:"required"`
	ManagerNotes string          `json:"manager_notes,omitempty" gorm:"type:text"`
	ResolvedAt   *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = ComplaintPending
	}
	return Validate(c)
}
