// Package events publishes order lifecycle events to Kafka.
package events

import (
	"context"       // Context for publishing
	"encoding/json" // JSON encoding
	"errors"        // Sentinel errors
	"sync/atomic"   // Closed flag
	"time"          // Breaker and batch timings

	"storefront/internal/domain" // Importing domain models

	"github.com/segmentio/kafka-go" // Kafka client
	"github.com/shopspring/decimal" // Exact decimal arithmetic
	"github.com/sirupsen/logrus"    // Logging library
	"github.com/sony/gobreaker/v2"  // Circuit breaker
)

// EventOrderCommitted is the event type of a committed purchase
const EventOrderCommitted = "order_committed"

var ErrPublisherClosed = errors.New("event publisher is closed")

// Event is the envelope written to the topic
type Event struct {
	EventType string `json:"event_type"` // Event discriminator
	Data      any    `json:"data"`       // Event payload
}

// OrderCommitted is the payload of EventOrderCommitted
type OrderCommitted struct {
	OrderID   string          `json:"orderId"`   // Committed order
	BuyerID   string          `json:"userId"`    // Buyer debited
	Total     decimal.Decimal `json:"total"`     // Declared total
	Items     []OrderItem     `json:"items"`     // Purchased lines
	CreatedAt time.Time       `json:"createdAt"` // Commit time
}

type OrderItem struct {
	ProductID string          `json:"productId"` // Purchased product
	Quantity  int             `json:"quantity"`  // Units bought
	Price     decimal.Decimal `json:"price"`     // Unit price at commit
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes events through a circuit breaker. While the breaker is
// open, publishes fail immediately with gobreaker.ErrOpenState.
type Publisher struct {
	writer  messageWriter                       // Kafka writer
	breaker *gobreaker.CircuitBreaker[struct{}] // Trips on repeated failures
	closed  atomic.Bool                         // Set by Close
}

// NewPublisher returns a Publisher writing to topic on brokers
func NewPublisher(brokers []string, topic string) *Publisher {
	return newPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...), // Bootstrap brokers
		Topic:        topic,                 // Order events topic
		Balancer:     &kafka.Hash{},         // Same order id, same partition
		RequiredAcks: kafka.RequireAll,      // Wait for all in-sync replicas
		BatchTimeout: 10 * time.Millisecond, // Flush quickly
		MaxAttempts:  3,                     // Writer level retries
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logrus.Errorf("kafka writer: "+msg, args...)
		}),
	})
}

func newPublisher(w messageWriter) *Publisher {
	return &Publisher{
		writer:  w,
		breaker: newBreaker("order-events"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker[struct{}] {
	var st gobreaker.Settings
	st.Name = name
	st.Timeout = 30 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 3 && failureRatio >= 0.6
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		logrus.WithFields(logrus.Fields{
			"breaker": name,
			"from":    from.String(),
			"to":      to.String(),
		}).Warn("Circuit breaker state changed")
	}
	return gobreaker.NewCircuitBreaker[struct{}](st)
}

// OrderCommitted publishes order keyed by its id, so every event of one
// order lands on the same partition.
func (p *Publisher) OrderCommitted(ctx context.Context, order *domain.Order) error {
	payload := OrderCommitted{
		OrderID:   order.ID,
		BuyerID:   order.BuyerID,
		Total:     order.Total,
		Items:     make([]OrderItem, 0, len(order.Lines)),
		CreatedAt: order.CreatedAt,
	}
	for _, line := range order.Lines {
		payload.Items = append(payload.Items, OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
		})
	}
	return p.publish(ctx, order.ID, Event{EventType: EventOrderCommitted, Data: payload})
}

func (p *Publisher) publish(ctx context.Context, key string, event Event) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(key),
			Value: value,
		})
	})
	return err
}

// Close flushes and closes the writer. Later publishes fail.
func (p *Publisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}
