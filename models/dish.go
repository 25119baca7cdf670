package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Dish is owned by exactly one chef
type Dish struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ChefID      string          `json:"chef_id" gorm:"not null;index" validate:"required"`
	Name        string          `json:"name" gorm:"not null" validate:"required"`
	Description string          `json:"description"`
	Img         string          `json:"img"`
	Category    string          `json:"category" gorm:"index"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null" validate:"gte=0"`
	Rating      float64         `json:"rating" gorm:"not null;default:0" validate:"gte=0,lte=5"`
	Available   bool            `json:"available" gorm:"not null"`
	VIPOnly     bool            `json:"vip_only" gorm:"not null;default:false"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (d *Dish) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return Validate(d)
}
