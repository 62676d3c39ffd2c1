// Package events publishes order lifecycle notifications to whichever backend
// is configured. Delivery is best effort: callers never block checkout or a
// status change on it.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	types "github.com/yungbote/boostcart-backend/internal/domain"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

const (
	BackendNone  = "none"
	BackendRedis = "redis"
	BackendKafka = "kafka"
)

type OrderEventItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	SubCategory string          `json:"sub_category"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type OrderEvent struct {
	Type           string           `json:"type"`
	OrderID        uuid.UUID        `json:"order_id"`
	OrderNumber    string           `json:"order_number"`
	UserID         uuid.UUID        `json:"user_id"`
	Status         string           `json:"status"`
	PreviousStatus string           `json:"previous_status,omitempty"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
	Items          []OrderEventItem `json:"items"`
	OccurredAt     time.Time        `json:"occurred_at"`
}

// NewOrderEvent copies what a downstream consumer needs out of the order.
// Items are included only when the order was loaded with them.
func NewOrderEvent(eventType string, o *types.Order, previousStatus string, at time.Time) OrderEvent {
	ev := OrderEvent{
		Type:           eventType,
		PreviousStatus: previousStatus,
		Items:          []OrderEventItem{},
		OccurredAt:     at.UTC(),
	}
	if o == nil {
		return ev
	}
	ev.OrderID = o.ID
	ev.OrderNumber = o.OrderNumber
	ev.UserID = o.UserID
	ev.Status = o.Status
	ev.TotalAmount = o.TotalAmount
	for _, it := range o.Items {
		ev.Items = append(ev.Items, OrderEventItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			SubCategory: it.SubCategory,
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal,
		})
	}
	return ev
}

type Publisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
	Backend() string
	Close() error
}

type noopPublisher struct{}

func NewNoopPublisher() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, OrderEvent) error { return nil }
func (noopPublisher) Backend() string                            { return BackendNone }
func (noopPublisher) Close() error                               { return nil }
