package repository

import (
	"context"
	"fmt"

	"CoinPulse/internal/domain/models"
	domrepo "CoinPulse/internal/domain/repository"
	pkgkafka "CoinPulse/pkg/kafka"
)

// KafkaSnapshotPublisher implements SnapshotPublisher on top of a Kafka
// producer. Snapshots are keyed by symbol so each symbol keeps ordering
// within its partition.
type KafkaSnapshotPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSnapshotPublisher creates a publisher for the given topic.
func NewKafkaSnapshotPublisher(producer *pkgkafka.Producer, topic string) *KafkaSnapshotPublisher {
	return &KafkaSnapshotPublisher{producer: producer, topic: topic}
}

var _ domrepo.SnapshotPublisher = (*KafkaSnapshotPublisher)(nil)

// Publish sends one snapshot.
func (p *KafkaSnapshotPublisher) Publish(ctx context.Context, snap *models.MarketSnapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	if err := p.producer.PublishJSON(ctx, p.topic, []byte(snap.Symbol), snap); err != nil {
		return fmt.Errorf("publish snapshot %s: %w", snap.Symbol, err)
	}
	return nil
}

// Close closes the underlying producer.
func (p *KafkaSnapshotPublisher) Close() error {
	return p.producer.Close()
}
