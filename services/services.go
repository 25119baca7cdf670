package services

import (
	"context"
	"log/slog"
	"time"

	"truebite-api/events"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// base carries what every service needs
type base struct {
	db        *gorm.DB
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func (b *base) publish(ctx context.Context, e events.Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = b.now()
	}
	if err := b.publisher.Publish(ctx, e); err != nil {
		b.logger.WarnContext(ctx, "failed to publish event", "type", e.Type, "order_id", e.OrderID, "error", err)
	}
}

// Options configures the service set
type Options struct {
	Publisher          events.Publisher
	Logger             *slog.Logger
	Now                func() time.Time
	DefaultDeliveryFee decimal.Decimal
}

// Services groups every workflow service over one database
type Services struct {
	Users      *UserService
	Dishes     *DishService
	Orders     *OrderService
	Bids       *BidService
	Complaints *ComplaintService
	Analytics  *AnalyticsService
}

func New(db *gorm.DB, opts Options) *Services {
	b := &base{db: db, publisher: opts.Publisher, logger: opts.Logger, now: opts.Now}
	if b.publisher == nil {
		b.publisher = events.NewLogPublisher(opts.Logger)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.now == nil {
		b.now = time.Now
	}
	return &Services{
		Users:      &UserService{base: b},
		Dishes:     &DishService{base: b},
		Orders:     &OrderService{base: b},
		Bids:       &BidService{base: b},
		Complaints: &ComplaintService{base: b},
		Analytics:  &AnalyticsService{base: b, defaultFee: opts.DefaultDeliveryFee},
	}
}
