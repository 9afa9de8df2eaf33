// Package events announces finished reports on an AMQP exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/config"
)

const publishTimeout = 5 * time.Second

// Generated is published once per successful report run.
type Generated struct {
	RunID        uuid.UUID       `json:"run_id"`
	Period       string          `json:"period"`
	Start        string          `json:"start"`
	End          string          `json:"end"`
	ExpenseTotal decimal.Decimal `json:"expense_total"`
	Net          decimal.Decimal `json:"net"`
	NetBasis     string          `json:"net_basis"`
	MessageID    string          `json:"message_id,omitempty"`
	File         string          `json:"file,omitempty"`
	ArchiveURI   string          `json:"archive_uri,omitempty"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

func (g Generated) ToJSON() ([]byte, error) {
	return json.Marshal(g)
}

// Publisher owns one connection and channel to the broker.
type Publisher struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	exchange   string
	routingKey string
}

// NewPublisher dials url and declares a durable topic exchange.
func NewPublisher(url, exchange, routingKey string) (*Publisher, error) {
	if url == "" {
		return nil, config.Missing("EVENTS_AMQP_URL")
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p := &Publisher{
		conn:       conn,
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return p, nil
}

// Message builds the persistent JSON message announcing evt.
func Message(evt Generated) (amqp091.Publishing, error) {
	body, err := evt.ToJSON()
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("marshal message: %w", err)
	}

	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    evt.RunID.String(),
		Timestamp:    evt.GeneratedAt,
		Body:         body,
	}, nil
}

// PublishGenerated publishes evt to the configured exchange.
func (p *Publisher) PublishGenerated(ctx context.Context, evt Generated) error {
	msg, err := Message(evt)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,   // exchange
		p.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.InfoContext(ctx, "Published report event",
		"run_id", evt.RunID,
		"exchange", p.exchange,
		"routing_key", p.routingKey)

	return nil
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}

	if p.conn != nil {
		return p.conn.Close()
	}

	return nil
}
