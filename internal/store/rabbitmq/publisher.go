package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/companion-studio/internal/companion"
)

const (
	eventType     = "companion.saved"
	retriesHeader = "x-retries"

	defaultRetryDelay = 5 * time.Second
)

// Topology names the queues of one event stream. Failed events wait in
// Retry for RetryDelay before they are dead-lettered back to Main; events
// rejected from Main land in DLQ.
type Topology struct {
	Main       string
	Retry      string
	DLQ        string
	RetryDelay time.Duration
}

func NewTopology(queue string) Topology {
	return Topology{
		Main:       queue,
		Retry:      queue + ".retry",
		DLQ:        queue + ".dlq",
		RetryDelay: defaultRetryDelay,
	}
}

type queueSpec struct {
	name string
	args amqp.Table
}

// queues lists the declarations in dependency order.
func (t Topology) queues() []queueSpec {
	return []queueSpec{
		{name: t.DLQ},
		{name: t.Retry, args: amqp.Table{
			"x-message-ttl":             t.RetryDelay.Milliseconds(),
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": t.Main,
		}},
		{name: t.Main, args: amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": t.DLQ,
		}},
	}
}

// Declare creates the durable queues. Publisher and worker both call it.
func (t Topology) Declare(ch *amqp.Channel) error {
	for _, q := range t.queues() {
		if _, err := ch.QueueDeclare(q.name, true, false, false, false, q.args); err != nil {
			return err
		}
	}
	return nil
}

// PublishRetry parks d in the retry queue with its attempt count bumped.
func (t Topology) PublishRetry(ctx context.Context, ch *amqp.Channel, d amqp.Delivery) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return ch.PublishWithContext(cctx, "", t.Retry, false, false, retryPublishing(d))
}

// Attempts reports how many times d has been sent through the retry queue.
func Attempts(d amqp.Delivery) int {
	switch n := d.Headers[retriesHeader].(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

func retryPublishing(d amqp.Delivery) amqp.Publishing {
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[retriesHeader] = int32(Attempts(d) + 1)

	return amqp.Publishing{
		Headers:      headers,
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    d.MessageId,
		Type:         d.Type,
		Timestamp:    d.Timestamp,
		Body:         d.Body,
	}
}

type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	topo Topology
}

func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	topo := NewTopology(queue)
	if err := topo.Declare(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, ch: ch, topo: topo}, nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func (p *Publisher) PublishCompanionSaved(ctx context.Context, evt companion.SavedEvent) error {
	msg, err := eventPublishing(evt)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.ch.PublishWithContext(cctx, "", p.topo.Main, false, false, msg)
}

func eventPublishing(evt companion.SavedEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.EventID,
		Type:         eventType,
		Body:         body,
		Timestamp:    evt.OccurredAt,
	}, nil
}

// DecodeEvent parses a delivery body produced by PublishCompanionSaved.
func DecodeEvent(body []byte) (companion.SavedEvent, error) {
	var evt companion.SavedEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return companion.SavedEvent{}, err
	}
	return evt, nil
}
