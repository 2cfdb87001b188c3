package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/stanstork/leadwatch-api/internal/config"
	"github.com/stanstork/leadwatch-api/internal/models"
)

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes notifications as JSON to a durable topic exchange.
type AMQPNotifier struct {
	conn       *amqp.Connection
	ch         amqpPublisher
	exchange   string
	routingKey string
	logger     zerolog.Logger
}

func NewAMQPNotifier(cfg config.AMQPConfig, logger zerolog.Logger) (*AMQPNotifier, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, fmt.Errorf("amqp url is required for amqp notifier")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to amqp broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	return &AMQPNotifier{
		conn:       conn,
		ch:         ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger.With().Str("notifier", "amqp").Logger(),
	}, nil
}

func (n *AMQPNotifier) String() string { return "amqp" }

func (n *AMQPNotifier) Notify(ctx context.Context, notif models.Notification) error {
	body, err := json.Marshal(notif)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	err = n.ch.PublishWithContext(ctx, n.exchange, n.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    notif.ID,
		Type:         string(notif.Type),
		Timestamp:    notif.CreatedAt,
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (n *AMQPNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}
