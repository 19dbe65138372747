package event

import (
	"context"
	"sync/atomic"

	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotencyStats counts what an IdempotentHandler did with its deliveries.
type IdempotencyStats struct {
	Processed int64 `json:"processed"`
	Duplicate int64 `json:"duplicate"`
	Failed    int64 `json:"failed"`
}

// IdempotentHandler guards a handler against redelivery: each event id is
// claimed in the store before the handler runs. A store outage fails open.
type IdempotentHandler struct {
	next   shared.EventHandler
	store  shared.IdempotencyStore
	cfg    shared.IdempotencyConfig
	logger *zap.Logger

	processed, duplicate, failed atomic.Int64
}

func NewIdempotentHandler(next shared.EventHandler, store shared.IdempotencyStore, cfg shared.IdempotencyConfig, logger *zap.Logger) *IdempotentHandler {
	return &IdempotentHandler{
		next:   next,
		store:  store,
		cfg:    cfg,
		logger: logger.With(zap.Strings("handles", next.EventTypes())),
	}
}

func (h *IdempotentHandler) EventTypes() []string {
	return h.next.EventTypes()
}

func (h *IdempotentHandler) Handle(ctx context.Context, e shared.DomainEvent) error {
	if h.cfg.Enabled && h.seen(ctx, e) {
		h.duplicate.Add(1)
		return nil
	}
	if err := h.next.Handle(ctx, e); err != nil {
		h.failed.Add(1)
		return err
	}
	h.processed.Add(1)
	return nil
}

// seen claims e's id and reports whether someone claimed it first.
func (h *IdempotentHandler) seen(ctx context.Context, e shared.DomainEvent) bool {
	id := e.EventID().String()
	claimed, err := h.store.MarkProcessed(ctx, "event:"+id, h.cfg.TTL)
	if err != nil {
		h.logger.Warn("Idempotency store unavailable, handling event anyway",
			zap.String("event_id", id), zap.Error(err))
		return false
	}
	if !claimed {
		h.logger.Debug("Skipping redelivered event",
			zap.String("event_id", id), zap.String("event_type", e.EventType()))
	}
	return !claimed
}

func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		Processed: h.processed.Load(),
		Duplicate: h.duplicate.Load(),
		Failed:    h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
