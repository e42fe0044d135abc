package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"blogforge/pkg/config"
	"blogforge/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	BillingQueueName = "billing_events_queue"
	BillingExchange  = "billing"

	RoutingKeySettled = "credits.settled"
	RoutingKeyGranted = "credits.granted"
)

// BillingEvent is published after a balance-affecting operation completes.
type BillingEvent struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	OrderID   string    `json:"order_id,omitempty"`
	PlanID    string    `json:"plan_id,omitempty"`
	Amount    int       `json:"amount"`
	Balance   int       `json:"balance"`
	Timestamp time.Time `json:"timestamp"`
}

type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Declare exchange for billing events
	err = channel.ExchangeDeclare(
		BillingExchange, // name
		"topic",         // type
		true,            // durable
		false,           // auto-deleted
		false,           // internal
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		BillingQueueName, // name
		true,             // durable
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	// Bind queue to all credits.* events
	err = channel.QueueBind(
		BillingQueueName, // queue name
		"credits.*",      // routing key
		BillingExchange,  // exchange
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// PublishBillingEvent publishes a billing event with the given routing key.
func (c *Client) PublishBillingEvent(routingKey string, event BillingEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = c.channel.Publish(
		BillingExchange, // exchange
		routingKey,      // routing key
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         eventJSON,
			DeliveryMode: amqp.Persistent, // Make message persistent
			Timestamp:    time.Now(),
		},
	)

	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish event to exchange=%s, routing_key=%s: %v", BillingExchange, routingKey, err)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	c.logger.Info("[RABBITMQ] Published billing event to exchange=%s, routing_key=%s: %s", BillingExchange, routingKey, string(eventJSON))
	return nil
}

// ConsumeBillingEvents consumes billing events from the queue
func (c *Client) ConsumeBillingEvents(handler func(event BillingEvent) error) error {
	msgs, err := c.channel.Consume(
		BillingQueueName, // queue
		"",               // consumer
		false,            // auto-ack (we'll manually ack after processing)
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,              // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("[RABBITMQ] Started consuming from billing queue: %s", BillingQueueName)

	go func() {
		for msg := range msgs {
			var event BillingEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				c.logger.Error("[RABBITMQ] Failed to unmarshal billing event: %v, body=%s", err, string(msg.Body))
				msg.Nack(false, false) // Reject and don't requeue
				continue
			}

			if err := handler(event); err != nil {
				c.logger.Error("[RABBITMQ] Handler failed to process billing event: %v, event=%+v", err, event)
				msg.Nack(false, true) // Reject and requeue
				continue
			}

			msg.Ack(false)
		}
	}()

	return nil
}
