// Package kafka publishes notifications to a Kafka topic, from which the
// downstream delivery fleet (email, push, SMS) consumes. Producing with acks
// from all in-sync replicas gives the dispatcher an honest success signal;
// a lost ack shows up as a redelivery, which downstream consumers must
// tolerate (at-least-once end to end).
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Channel produces notification messages to a single topic, keyed by
// recipient so one recipient's messages stay ordered within a partition.
type Channel struct {
	client *kgo.Client
	topic  string
}

// message is the wire payload consumed by the delivery fleet.
type message struct {
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
}

// New connects to the brokers and ensures the topic exists.
func New(ctx context.Context, brokers []string, topic string) (*Channel, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	if _, err := admin.CreateTopic(ctx, 3, 1, nil, topic); err != nil && !isTopicExists(err) {
		client.Close()
		return nil, fmt.Errorf("create topic %s: %w", topic, err)
	}
	return &Channel{client: client, topic: topic}, nil
}

func (c *Channel) Name() string { return "kafka" }

func (c *Channel) Send(ctx context.Context, recipient, subject, body string) error {
	payload, err := json.Marshal(message{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	record := &kgo.Record{
		Topic: c.topic,
		Key:   []byte(recipient),
		Value: payload,
	}
	if err := c.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce notification: %w", err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (c *Channel) Close() {
	c.client.Close()
}

func isTopicExists(err error) bool {
	// kadm surfaces TOPIC_ALREADY_EXISTS in the broker error string; an
	// existing topic is fine, anything else is not.
	return err != nil &&
		(strings.Contains(err.Error(), "TOPIC_ALREADY_EXISTS") || strings.Contains(err.Error(), "already exists"))
}
