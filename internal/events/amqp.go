package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const amqpPublishTimeout = 5 * time.Second

// Channel is satisfied by *amqp091.Channel.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// AMQPPublisher publishes events to a topic exchange. The routing key is
// "<type prefix>.<branch id>", e.g. "kitchen.<branch id>" for kitchen
// tickets, so each kitchen binds only to its own branch.
type AMQPPublisher struct {
	ch       Channel
	exchange string
}

// NewAMQPPublisher creates an AMQPPublisher.
func NewAMQPPublisher(ch Channel, exchange string) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, exchange: exchange}
}

// DeclareExchange declares the durable topic exchange events go to.
func DeclareExchange(ch *amqp091.Channel, exchange string) error {
	err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return nil
}

// RoutingKey returns the routing key for ev.
func RoutingKey(ev Event) string {
	prefix := string(ev.Type)
	for i := 0; i < len(prefix); i++ {
		if prefix[i] == '.' {
			prefix = prefix[:i]
			break
		}
	}
	return prefix + "." + ev.BranchID.String()
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal amqp message: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, amqpPublishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(ctx,
		p.exchange,
		RoutingKey(ev),
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			DeliveryMode: amqp091.Persistent,
			ContentType:  "application/json",
			MessageId:    ev.SubjectID.String(),
			Type:         string(ev.Type),
			Timestamp:    ev.At,
			Body:         body,
		},
	)
}
