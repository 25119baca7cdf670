package events

//go:generate mockgen -source=publisher.go -destination=mock_publisher.go -package=events

import (
	"context"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
)

type Type string

const (
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status_changed"
	BidSubmitted       Type = "bid.submitted"
	BidAccepted        Type = "bid.accepted"
	ComplaintCreated   Type = "complaint.created"
	ComplaintResolved  Type = "complaint.resolved"
	UserWarned         Type = "user.warned"
	DepositAdded       Type = "deposit.added"
)

// Event describes a committed change in the workflow
type Event struct {
	Type       Type                   `json:"type"`
	OrderID    string                 `json:"order_id,omitempty"`
	ActorID    string                 `json:"actor_id,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Key groups events of one order onto one partition; other events fall back to the actor
func (e Event) Key() string {
	if e.OrderID != "" {
		return e.OrderID
	}
	return e.ActorID
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// LogPublisher writes events to the structured log; used when Kafka is disabled
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.InfoContext(ctx, "event", "type", e.Type, "order_id", e.OrderID, "actor_id", e.ActorID)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
