// Package queue_publisher publishes domain events to RabbitMQ.
// Publishing is best-effort: errors are logged and returned so callers
// can ignore a broker outage without failing the request that
// triggered the event.
package queue_publisher

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    q "github.com/lilycrest/lilycrest-server/internal/queue"
)

// PublishAuditEvent publishes an AuditEvent to the audit.logged queue.
// The queue is declared durable and messages are marked persistent so
// audit lines survive a broker restart.  A missing OccurredAt is
// stamped here so handlers don't have to.
func PublishAuditEvent(ctx context.Context, event q.AuditEvent) error {
    if event.OccurredAt == "" {
        event.OccurredAt = time.Now().UTC().Format(time.RFC3339)
    }

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
        "audit.logged", // name
        true,           // durable
        false,          // autoDelete
        false,          // exclusive
        false,          // noWait
        nil,            // args
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
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",             // default exchange
        "audit.logged", // routing key = queue name
        false,          // mandatory
        false,          // immediate
        pub,
    ); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }

    return nil
}
