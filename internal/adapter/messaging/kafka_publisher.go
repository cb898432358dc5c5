package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/rl1809/lot-allocation/internal/core/domain"
)

// KafkaPublisherConfig contains configurable parameters for the result publisher.
type KafkaPublisherConfig struct {
	Brokers []string
	Topic   string

	// MaxAttempts defaults to 3 if <= 0.
	MaxAttempts int

	// WriteTimeout defaults to 10s if zero.
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes committed allocation results to a topic, keyed by
// order id so results of one order stay on one partition.
type KafkaPublisher struct {
	writer      messageWriter
	maxAttempts int
	backoff     time.Duration
}

type resultMessage struct {
	ID                string    `json:"id"`
	OrderID           string    `json:"order_id"`
	ItemCode          string    `json:"item_code"`
	LotID             int64     `json:"lot_id,omitempty"`
	Strategy          string    `json:"strategy"`
	AllocatedQuantity int       `json:"allocated_quantity"`
	AllocatedPrice    float64   `json:"allocated_price"`
	AllocationDate    time.Time `json:"allocation_date"`
}

func NewKafkaPublisher(cfg KafkaPublisherConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: topic required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireAll,
	}

	return newKafkaPublisher(w, cfg.MaxAttempts), nil
}

func newKafkaPublisher(w messageWriter, maxAttempts int) *KafkaPublisher {
	return &KafkaPublisher{writer: w, maxAttempts: maxAttempts, backoff: 100 * time.Millisecond}
}

func (p *KafkaPublisher) PublishResults(ctx context.Context, results []domain.AllocationResult) error {
	if len(results) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(results))
	now := time.Now().UTC()
	for _, r := range results {
		value, err := json.Marshal(resultMessage{
			ID:                r.ID,
			OrderID:           r.OrderID,
			ItemCode:          r.ItemCode,
			LotID:             r.LotID,
			Strategy:          r.Strategy,
			AllocatedQuantity: r.AllocatedQuantity,
			AllocatedPrice:    r.AllocatedPrice,
			AllocationDate:    r.AllocationDate,
		})
		if err != nil {
			return fmt.Errorf("marshal result %s: %w", r.ID, err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(r.OrderID), Value: value, Time: now})
	}

	var lastErr error
	backoff := p.backoff
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if lastErr = p.writer.WriteMessages(ctx, msgs...); lastErr == nil {
			return nil
		}
		if attempt == p.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}

	return fmt.Errorf("publish failed after %d attempts: %w", p.maxAttempts, lastErr)
}

func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// NopPublisher drops results; used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishResults(context.Context, []domain.AllocationResult) error { return nil }
