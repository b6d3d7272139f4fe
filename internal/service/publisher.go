// Package service holds outbound integrations used by the handlers.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/exam-seating/internal/queue"
)

// Publisher sends domain events to RabbitMQ, dialing once per message.
type Publisher struct {
	URL string
	Log *zap.Logger
}

func NewPublisher(url string, log *zap.Logger) *Publisher {
	return &Publisher{URL: url, Log: log.Named("publisher")}
}

// PublishPlanCreated publishes ev as a persistent JSON message to the
// seating.plan_created queue.  Errors are logged and returned so callers
// may ignore them.
func (p *Publisher) PublishPlanCreated(ctx context.Context, ev queue.PlanCreatedEvent) error {
	log := p.Log.With(zap.String("plan_id", ev.PlanID))

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Warn("dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Warn("channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.PlanCreatedQueue, true, false, false, false, nil); err != nil {
		log.Warn("queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.PlanID,
		Type:         queue.PlanCreatedQueue,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.PlanCreatedQueue, false, false, msg); err != nil {
		log.Warn("publish failed", zap.Error(err))
		return err
	}
	log.Debug("plan event published")
	return nil
}
