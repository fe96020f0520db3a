// Package queue_publisher publishes domain events to RabbitMQ. Errors
// are logged and returned so callers can ignore failures without
// interrupting the request flow.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/bus-reservation/internal/queue"
)

// PublishReservationConfirmed publishes a ReservationConfirmedEvent to
// the reservation.confirmed queue.
func PublishReservationConfirmed(ctx context.Context, event q.ReservationConfirmedEvent) error {
	return publish(ctx, "reservation.confirmed", event)
}

// PublishReservationCancelled publishes a ReservationCancelledEvent to
// the reservation.cancelled queue.
func PublishReservationCancelled(ctx context.Context, event q.ReservationCancelledEvent) error {
	return publish(ctx, "reservation.cancelled", event)
}

// publish declares the durable queue (idempotent) and publishes one
// persistent JSON message to it through the default exchange.
func publish(ctx context.Context, queueName string, event any) error {
	conn, err := amqp.Dial(q.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
