// internal/service/notifier.go
package service

import "log/slog"

// Notifier delivers "balances changed" notifications as a side effect of
// engine operations. Delivery happens outside the atomic unit and must never
// block or fail the operation that triggered it.
type Notifier interface {
	BalancesChanged(ownerID int64)
}

// ChannelNotifier fans balance-change events out to a buffered channel that a
// delivery worker drains. When the buffer is full the event is dropped and
// logged rather than blocking the mutating operation.
type ChannelNotifier struct {
	events chan int64
	logger *slog.Logger
}

// NewChannelNotifier creates a notifier with the given buffer size.
func NewChannelNotifier(buffer int, logger *slog.Logger) *ChannelNotifier {
	return &ChannelNotifier{
		events: make(chan int64, buffer),
		logger: logger,
	}
}

// BalancesChanged enqueues a notification without blocking.
func (n *ChannelNotifier) BalancesChanged(ownerID int64) {
	select {
	case n.events <- ownerID:
	default:
		n.logger.Warn("notification buffer full, dropping balance-change event", "owner_id", ownerID)
	}
}

// Events exposes the event stream to the delivery layer.
func (n *ChannelNotifier) Events() <-chan int64 {
	return n.events
}

// noopNotifier is used when no delivery layer is wired, e.g. in tests.
type noopNotifier struct{}

func (noopNotifier) BalancesChanged(int64) {}

// NopNotifier returns a notifier that discards every event.
func NopNotifier() Notifier {
	return noopNotifier{}
}
