// Package kafka publishes ledger sync events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/smartranch/ranch-engine/events"
)

const DefaultTopic = "ledger_synced"

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Publisher) Publish(ctx context.Context, evt events.LedgerSynced) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		// Key by source so edits to one record stay in one partition.
		Key:   []byte(fmt.Sprintf("%s/%d", evt.SourceTable, evt.SourceID)),
		Value: data,
	})
}

func (p *Publisher) Close() error { return p.writer.Close() }
