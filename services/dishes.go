package services

import (
	"context"
	"strings"

	"truebite-api/models"

	"github.com/shopspring/decimal"
)

type DishService struct {
	*base
}

type DishInput struct {
	Name        string
	Description string
	Img         string
	Category    string
	Price       decimal.Decimal
	VIPOnly     bool
}

func (s *DishService) Create(ctx context.Context, session Session, in DishInput) (*models.Dish, error) {
	if err := session.require(models.RoleChef); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, validationf("dish name is required")
	}
	if in.Price.IsNegative() {
		return nil, validationf("price must not be negative")
	}
	if !isCents(in.Price) {
		return nil, validationf("price %s has more than 2 decimal places", in.Price)
	}
	dish := &models.Dish{
		ChefID:      session.UserID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Img:         in.Img,
		Category:    in.Category,
		Price:       in.Price,
		Available:   true,
		VIPOnly:     in.VIPOnly,
	}
	if err := s.db.WithContext(ctx).Create(dish).Error; err != nil {
		return nil, storeErr(err, "create dish")
	}
	return dish, nil
}

// DishUpdate holds the fields a chef may change; nil means unchanged
type DishUpdate struct {
	Name        *string
	Description *string
	Img         *string
	Category    *string
	Price       *decimal.Decimal
	Available   *bool
	VIPOnly     *bool
}

// Update applies changes to a dish owned by the calling chef
func (s *DishService) Update(ctx context.Context, session Session, id string, in DishUpdate) (*models.Dish, error) {
	if err := session.require(models.RoleChef); err != nil {
		return nil, err
	}
	dish, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if dish.ChefID != session.UserID {
		return nil, forbiddenf("dish %s belongs to another chef", id)
	}

	update := map[string]interface{}{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, validationf("dish name is required")
		}
		update["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		update["description"] = *in.Description
	}
	if in.Img != nil {
		update["img"] = *in.Img
	}
	if in.Category != nil {
		update["category"] = *in.Category
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, validationf("price must not be negative")
		}
		if !isCents(*in.Price) {
			return nil, validationf("price %s has more than 2 decimal places", *in.Price)
		}
		update["price"] = *in.Price
	}
	if in.Available != nil {
		update["available"] = *in.Available
	}
	if in.VIPOnly != nil {
		update["vip_only"] = *in.VIPOnly
	}
	if len(update) == 0 {
		return dish, nil
	}
	if err := s.db.WithContext(ctx).Model(dish).Updates(update).Error; err != nil {
		return nil, storeErr(err, "update dish")
	}
	return s.Get(ctx, id)
}

func (s *DishService) Get(ctx context.Context, id string) (*models.Dish, error) {
	var dish models.Dish
	if err := s.db.WithContext(ctx).First(&dish, "id = ?", id).Error; err != nil {
		return nil, storeErr(err, "dish "+id)
	}
	return &dish, nil
}

// ListByChef returns all of a chef's dishes sorted by name
func (s *DishService) ListByChef(ctx context.Context, chefID string) ([]models.Dish, error) {
	var dishes []models.Dish
	err := s.db.WithContext(ctx).Where("chef_id = ?", chefID).Order("name asc").Find(&dishes).Error
	return dishes, storeErr(err, "list dishes")
}

type MenuFilter struct {
	ChefID   string
	Category string
	Search   string
}

// ListMenu returns the available dishes customers can order
func (s *DishService) ListMenu(ctx context.Context, f MenuFilter) ([]models.Dish, error) {
	query := s.db.WithContext(ctx).Where("available = ?", true)
	if f.ChefID != "" {
		query = query.Where("chef_id = ?", f.ChefID)
	}
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		query = query.Where("name LIKE ?", "%"+f.Search+"%")
	}
	var dishes []models.Dish
	err := query.Order("name asc").Find(&dishes).Error
	return dishes, storeErr(err, "list menu")
}
