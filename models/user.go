package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleVisitor    UserRole = "visitor"
	RoleRegistered UserRole = "registered"
	RoleVIP        UserRole = "vip"
	RoleManager    UserRole = "manager"
	RoleChef       UserRole = "chef"
	RoleDelivery   UserRole = "delivery"
)

var validRoles = map[UserRole]bool{
	RoleVisitor:    true,
	RoleRegistered: true,
	RoleVIP:        true,
	RoleManager:    true,
	RoleChef:       true,
	RoleDelivery:   true,
}

func (r UserRole) Valid() bool { return validRoles[r] }

// IsCustomer reports whether the role may place orders
func (r UserRole) IsCustomer() bool { return r == RoleRegistered || r == RoleVIP }

// AccountType is what the user signed up as, independent of the role a manager assigns later
type AccountType string

const (
	AccountCustomer AccountType = "customer"
	AccountEmployee AccountType = "employee"
	AccountManager  AccountType = "manager"
)

func (a AccountType) Valid() bool {
	return a == AccountCustomer || a == AccountEmployee || a == AccountManager
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

type User struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name            string          `json:"name" gorm:"not null" validate:"required"`
	Email           string          `json:"email" gorm:"uniqueIndex;not null" validate:"required,email"`
	PasswordHash    string          `json:"-" gorm:"not null" validate:"required"`
	Role            UserRole        `json:"role" gorm:"not null;default:'registered'" validate:"required"`
	AccountType     AccountType     `json:"account_type" gorm:"not null;default:'customer'" validate:"required"`
	Status          ApprovalStatus  `json:"status" gorm:"not null;default:'pending';index" validate:"required"`
	Deposit         decimal.Decimal `json:"deposit" gorm:"type:decimal(10,2);not null;default:0" validate:"gte=0"`
	Warnings        int             `json:"warnings" gorm:"not null;default:0" validate:"gte=0"`
	ReputationScore float64         `json:"reputation_score" gorm:"not null;default:0" validate:"gte=0,lte=5"`
	Blacklisted     bool            `json:"blacklisted" gorm:"not null;default:false"`
	OrderCount      int             `json:"order_count" gorm:"not null;default:0" validate:"gte=0"`
	TotalSpent      decimal.Decimal `json:"total_spent" gorm:"type:decimal(10,2);not null;default:0" validate:"gte=0"`
	Version         int             `json:"-" gorm:"not null;default:0"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleRegistered
	}
	if u.AccountType == "" {
		u.AccountType = AccountCustomer
	}
	if u.Status == "" {
		u.Status = ApprovalPending
	}
	return Validate(u)
}
