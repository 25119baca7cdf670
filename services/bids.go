package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"truebite-api/events"
	"truebite-api/models"
	"truebite-api/statemachine"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BidService struct {
	*base
}

type BidInput struct {
	EstimatedTime int // minutes
	ProposedFee   *decimal.Decimal
}

// SubmitBid records a delivery person's offer on an order waiting for a driver
func (s *BidService) SubmitBid(ctx context.Context, session Session, orderID string, in BidInput) (*models.DeliveryBid, error) {
	if err := session.require(models.RoleDelivery); err != nil {
		return nil, err
	}
	if in.EstimatedTime <= 0 {
		return nil, validationf("estimated time must be a positive number of minutes")
	}
	if in.ProposedFee != nil && in.ProposedFee.IsNegative() {
		return nil, validationf("proposed fee must not be negative")
	}

	var bid *models.DeliveryBid
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return storeErr(err, "order "+orderID)
		}
		if order.Status != models.StatusReadyForDelivery || order.AssignedDriverID != nil {
			return conflictf("order %s is not open for bidding (status %s)", orderID, order.Status)
		}

		var existing models.DeliveryBid
		err := tx.Where("order_id = ? AND delivery_person_id = ? AND status = ?",
			orderID, session.UserID, models.BidPending).First(&existing).Error
		if err == nil {
			return conflictf("you already have a pending bid on order %s", orderID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return storeErr(err, "lookup bid")
		}

		var bidder models.User
		if err := tx.First(&bidder, "id = ?", session.UserID).Error; err != nil {
			return storeErr(err, "delivery person "+session.UserID)
		}
		bid = &models.DeliveryBid{
			OrderID:            orderID,
			DeliveryPersonID:   bidder.ID,
			DeliveryPersonName: bidder.Name,
			EstimatedTime:      in.EstimatedTime,
			ProposedFee:        in.ProposedFee,
			Status:             models.BidPending,
			ReputationScore:    bidder.ReputationScore,
		}
		return storeErr(tx.Create(bid).Error, "create bid")
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.BidSubmitted,
		OrderID: orderID,
		ActorID: session.UserID,
		Payload: map[string]interface{}{"bid_id": bid.ID, "estimated_time": bid.EstimatedTime},
	})
	return bid, nil
}

// ListMyBids returns the caller's bids, newest first
func (s *BidService) ListMyBids(ctx context.Context, session Session) ([]models.DeliveryBid, error) {
	var bids []models.DeliveryBid
	err := s.db.WithContext(ctx).Where("delivery_person_id = ?", session.UserID).
		Order("created_at desc").Find(&bids).Error
	return bids, storeErr(err, "list bids")
}

// ListPendingBids returns pending bids, optionally for one order, best first
func (s *BidService) ListPendingBids(ctx context.Context, session Session, orderID string) ([]models.DeliveryBid, error) {
	if err := session.require(models.RoleManager); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Where("status = ?", models.BidPending)
	if orderID != "" {
		query = query.Where("order_id = ?", orderID)
	}
	var bids []models.DeliveryBid
	if err := query.Find(&bids).Error; err != nil {
		return nil, storeErr(err, "list pending bids")
	}
	RankBids(bids)
	return bids, nil
}

// RankBids orders bids by reputation (highest first), then quickest estimate, then earliest submission
func RankBids(bids []models.DeliveryBid) {
	sort.SliceStable(bids, func(i, j int) bool {
		a, b := bids[i], bids[j]
		if a.ReputationScore != b.ReputationScore {
			return a.ReputationScore > b.ReputationScore
		}
		if a.EstimatedTime != b.EstimatedTime {
			return a.EstimatedTime < b.EstimatedTime
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

type AcceptResult struct {
	Order    *models.Order       `json:"order"`
	Bid      *models.DeliveryBid `json:"bid"`
	Declined int64               `json:"declined"`
}

// AcceptBid makes bidID the winner for orderID: the bid is accepted, its pending
// siblings are declined and the order is assigned to the bidder, all or nothing.
func (s *BidService) AcceptBid(ctx context.Context, session Session, orderID, bidID string) (*AcceptResult, error) {
	if err := session.require(models.RoleManager); err != nil {
		return nil, err
	}

	result := &AcceptResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bid models.DeliveryBid
		if err := tx.First(&bid, "id = ?", bidID).Error; err != nil {
			return storeErr(err, "bid "+bidID)
		}
		if bid.OrderID != orderID {
			return validationf("bid %s does not belong to order %s", bidID, orderID)
		}
		if bid.Status != models.BidPending {
			return conflictf("bid %s is already %s", bidID, bid.Status)
		}

		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return storeErr(err, "order "+orderID)
		}
		if err := statemachine.CanTransition(order.Status, models.StatusAssigned, statemachine.ActorManager); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}
		if order.AssignedDriverID != nil {
			return conflictf("order %s already has a driver", orderID)
		}

		now := s.now()
		eta := now.Add(time.Duration(bid.EstimatedTime) * time.Minute)

		res := tx.Model(&models.DeliveryBid{}).
			Where("id = ? AND status = ?", bid.ID, models.BidPending).
			Updates(map[string]interface{}{"status": models.BidAccepted, "decided_at": now})
		if res.Error != nil {
			return storeErr(res.Error, "accept bid")
		}
		if res.RowsAffected == 0 {
			return conflictf("bid %s changed concurrently", bidID)
		}

		res = tx.Model(&models.DeliveryBid{}).
			Where("order_id = ? AND status = ? AND id <> ?", orderID, models.BidPending, bid.ID).
			Updates(map[string]interface{}{"status": models.BidDeclined, "decided_at": now})
		if res.Error != nil {
			return storeErr(res.Error, "decline sibling bids")
		}
		result.Declined = res.RowsAffected

		res = tx.Model(&models.Order{}).
			Where("id = ? AND status = ? AND assigned_driver_id IS NULL", orderID, models.StatusReadyForDelivery).
			Updates(map[string]interface{}{
				"status":                  models.StatusAssigned,
				"assigned_driver_id":      bid.DeliveryPersonID,
				"assigned_driver_name":    bid.DeliveryPersonName,
				"assigned_at":             now,
				"estimated_delivery_time": eta,
			})
		if res.Error != nil {
			return storeErr(res.Error, "assign order")
		}
		if res.RowsAffected == 0 {
			return conflictf("order %s changed concurrently", orderID)
		}
		note := fmt.Sprintf("Bid %s accepted; driver %s, ETA %d min", bid.ID, bid.DeliveryPersonName, bid.EstimatedTime)
		if err := recordHistory(tx, orderID, order.Status, models.StatusAssigned, session.UserID, note); err != nil {
			return err
		}

		bid.Status = models.BidAccepted
		bid.DecidedAt = &now
		result.Bid = &bid
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := (&OrderService{base: s.base}).load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	result.Order = order

	s.publish(ctx, events.Event{
		Type:    events.BidAccepted,
		OrderID: orderID,
		ActorID: session.UserID,
		Payload: map[string]interface{}{
			"bid_id":                  bidID,
			"assigned_driver_id":      result.Bid.DeliveryPersonID,
			"estimated_delivery_time": order.EstimatedDeliveryTime,
			"declined":                result.Declined,
		},
	})
	return result, nil
}
