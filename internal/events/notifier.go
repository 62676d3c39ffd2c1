package events

import (
	"context"
	"sync"
	"time"

	types "github.com/yungbote/boostcart-backend/internal/domain"
	"github.com/yungbote/boostcart-backend/internal/observability"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

const DefaultNotifyTimeout = 5 * time.Second

// Notifier fans order events out in the background.
type Notifier interface {
	OrderCreated(o *types.Order)
	OrderStatusChanged(o *types.Order, previousStatus string)
	// Wait blocks until in-flight notifications finish or ctx ends.
	Wait(ctx context.Context) error
}

type asyncNotifier struct {
	log       *logger.Logger
	publisher Publisher
	metrics   *observability.Metrics
	timeout   time.Duration
	now       func() time.Time
	wg        sync.WaitGroup
}

func NewNotifier(log *logger.Logger, publisher Publisher, metrics *observability.Metrics, timeout time.Duration) Notifier {
	if publisher == nil {
		publisher = NewNoopPublisher()
	}
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}
	return &asyncNotifier{
		log:       log.With("service", "OrderNotifier"),
		publisher: publisher,
		metrics:   metrics,
		timeout:   timeout,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (n *asyncNotifier) OrderCreated(o *types.Order) {
	n.dispatch(NewOrderEvent(EventOrderCreated, o, "", n.now()))
}

func (n *asyncNotifier) OrderStatusChanged(o *types.Order, previousStatus string) {
	n.dispatch(NewOrderEvent(EventOrderStatusChanged, o, previousStatus, n.now()))
}

func (n *asyncNotifier) dispatch(ev OrderEvent) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				n.log.Error("order event publisher panicked", "type", ev.Type, "order_id", ev.OrderID, "panic", r)
				n.metrics.IncNotification(n.publisher.Backend(), ev.Type, "panic")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := n.publisher.Publish(ctx, ev); err != nil {
			n.log.Warn("order event not delivered", "type", ev.Type, "order_id", ev.OrderID, "backend", n.publisher.Backend(), "error", err)
			n.metrics.IncNotification(n.publisher.Backend(), ev.Type, "error")
			return
		}
		n.metrics.IncNotification(n.publisher.Backend(), ev.Type, "sent")
	}()
}

func (n *asyncNotifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
