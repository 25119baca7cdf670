package services

import (
	"context"
	"strings"

	"truebite-api/events"
	"truebite-api/models"

	"gorm.io/gorm"
)

type ComplaintService struct {
	*base
}

type ComplaintInput struct {
	OrderID     string
	TargetType  models.ComplaintTarget
	TargetID    string
	TargetName  string
	Description string
}

// Create files a complaint about one of the caller's own orders
func (s *ComplaintService) Create(ctx context.Context, session Session, in ComplaintInput) (*models.Complaint, error) {
	if err := session.requireCustomer(); err != nil {
		return nil, err
	}
	if !in.TargetType.Valid() {
		return nil, validationf("invalid complaint target %q", in.TargetType)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, validationf("description is required")
	}

	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, "id = ?", in.OrderID).Error; err != nil {
		return nil, storeErr(err, "order "+in.OrderID)
	}
	if order.CustomerID != session.UserID {
		return nil, forbiddenf("order %s does not belong to you", in.OrderID)
	}

	targetID, targetName := in.TargetID, in.TargetName
	switch in.TargetType {
	case models.TargetOrder:
		if targetID == "" {
			targetID = order.ID
		}
	case models.TargetDelivery:
		if targetID == "" {
			if order.AssignedDriverID == nil {
				return nil, validationf("order %s has no delivery person", order.ID)
			}
			targetID = *order.AssignedDriverID
			targetName = order.AssignedDriverName
		}
	case models.TargetChef:
		if targetID == "" {
			return nil, validationf("target_id is required for a chef complaint")
		}
		var cooked int64
		err := s.db.WithContext(ctx).Model(&models.OrderItem{}).
			Joins("JOIN dishes ON dishes.id = order_items.dish_id").
			Where("order_items.order_id = ? AND dishes.chef_id = ?", order.ID, targetID).
			Count(&cooked).Error
		if err != nil {
			return nil, storeErr(err, "check chef of order")
		}
		if cooked == 0 {
			return nil, validationf("chef %s did not prepare any dish in order %s", targetID, order.ID)
		}
	}

	c := &models.Complaint{
		OrderID:      order.ID,
		CustomerID:   session.UserID,
		CustomerName: session.Name,
		TargetType:   in.TargetType,
		TargetID:     targetID,
		TargetName:   targetName,
		Description:  strings.TrimSpace(in.Description),
		Status:       models.ComplaintPending,
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, storeErr(err, "create complaint")
	}
	s.publish(ctx, events.Event{
		Type:    events.ComplaintCreated,
		OrderID: order.ID,
		ActorID: session.UserID,
		Payload: map[string]interface{}{"complaint_id": c.ID, "target_type": c.TargetType, "target_id": c.TargetID},
	})
	return c, nil
}

// List returns complaints newest first; managers see all, customers their own
func (s *ComplaintService) List(ctx context.Context, session Session, status models.ComplaintStatus) ([]models.Complaint, error) {
	query := s.db.WithContext(ctx)
	switch {
	case session.Role == models.RoleManager:
	case session.Role.IsCustomer():
		query = query.Where("customer_id = ?", session.UserID)
	default:
		return nil, forbiddenf("role %q may not list complaints", session.Role)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var complaints []models.Complaint
	err := query.Order("created_at desc").Find(&complaints).Error
	return complaints, storeErr(err, "list complaints")
}

// Resolve closes a pending complaint. It records the decision only; a
// RESOLVED_WARNING does not touch anyone's warning counter.
func (s *ComplaintService) Resolve(ctx context.Context, session Session, id string, resolution models.ComplaintStatus, notes string) (*models.Complaint, error) {
	if err := session.require(models.RoleManager); err != nil {
		return nil, err
	}
	if !resolution.IsResolution() {
		return nil, validationf("invalid resolution %q", resolution)
	}
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, validationf("manager notes are required")
	}

	var c models.Complaint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, "id = ?", id).Error; err != nil {
			return storeErr(err, "complaint "+id)
		}
		if c.Status != models.ComplaintPending {
			return conflictf("complaint %s is already %s", id, c.Status)
		}
		now := s.now()
		res := tx.Model(&models.Complaint{}).
			Where("id = ? AND status = ?", id, models.ComplaintPending).
			Updates(map[string]interface{}{
				"status":        resolution,
				"manager_notes": notes,
				"resolved_at":   now,
			})
		if res.Error != nil {
			return storeErr(res.Error, "resolve complaint")
		}
		if res.RowsAffected == 0 {
			return conflictf("complaint %s changed concurrently", id)
		}
		c.Status = resolution
		c.ManagerNotes = notes
		c.ResolvedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.ComplaintResolved,
		OrderID: c.OrderID,
		ActorID: session.UserID,
		Payload: map[string]interface{}{"complaint_id": c.ID, "resolution": resolution},
	})
	return &c, nil
}
