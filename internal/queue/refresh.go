package queue

import (
	"context"
	"encoding/json"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	RefreshQueue  = "fieldmetrics.refresh"
	RefreshDLQ    = "fieldmetrics.refresh.dlq"
	RefreshRK     = "kpi.refresh"
	RefreshDeadRK = "dead"
)

type refreshEvent struct {
	RequestedAt string `json:"requestedAt"`
	Status      string `json:"status"`
}

// EnsureRefreshTopology declares the refresh queue bound to the events
// exchange, with a dead-letter queue for poison messages.
func EnsureRefreshTopology(ctx context.Context, qc *Client, exchange string) error {
	if qc == nil {
		return nil
	}

	if err := qc.EnsureExchange(exchange); err != nil {
		return err
	}

	if _, err := qc.EnsureQueue(RefreshDLQ); err != nil {
		return err
	}
	if err := qc.BindQueue(RefreshDLQ, exchange, RefreshDeadRK); err != nil {
		return err
	}

	_, err := qc.EnsureQueueWithArgs(RefreshQueue, amqp.Table{
		"x-dead-letter-exchange":    exchange,
		"x-dead-letter-routing-key": RefreshDeadRK,
	})
	if err != nil {
		return err
	}
	return qc.BindQueue(RefreshQueue, exchange, RefreshRK)
}

// CacheClearer is the aggregator surface the refresh consumer needs.
type CacheClearer interface {
	ClearCache()
}

// ProcessRefreshEvent handles a kpi.refresh message by dropping the cached
// rows, so the next dashboard request refetches every source. Unknown
// envelopes are acked and ignored.
func ProcessRefreshEvent(ctx context.Context, agg CacheClearer, body []byte) error {
	if agg == nil {
		return nil
	}

	var evt refreshEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return err
	}
	if strings.TrimSpace(evt.RequestedAt) == "" {
		return nil
	}

	agg.ClearCache()
	return nil
}
