package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaFeed publishes ledger entries to the reporting topic. Delivery is
// asynchronous and best-effort: a broker outage must never stall or fail an
// order, so produce errors are only logged.
type KafkaFeed struct {
	client *kgo.Client
	topic  string
	log    *slog.Logger
}

func NewKafkaFeed(brokers, topic string, log *slog.Logger) (*KafkaFeed, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaFeed{client: client, topic: topic, log: log}, nil
}

type feedRecord struct {
	OrderID string `json:"order_id"`
	Entry
}

func (f *KafkaFeed) Publish(ctx context.Context, orderID uuid.UUID, entry Entry) {
	value, err := json.Marshal(feedRecord{OrderID: orderID.String(), Entry: entry})
	if err != nil {
		f.log.Error("encode audit feed record", "error", err)
		return
	}

	record := &kgo.Record{
		Key:   []byte(orderID.String()),
		Value: value,
	}
	f.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			f.log.Warn("audit feed publish failed", "order_id", orderID, "error", err)
		}
	})
}

// Close flushes pending records and releases the client.
func (f *KafkaFeed) Close(ctx context.Context) error {
	if err := f.client.Flush(ctx); err != nil {
		return err
	}
	f.client.Close()
	return nil
}
