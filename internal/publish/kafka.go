package publish

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"parkdur/internal/config"
	"parkdur/internal/model"
)

// Anomalies writes a run's anomalies to a Kafka topic, keyed by plate, so
// hazard plates and sequence irregularities can feed review tooling.
// Disabled or empty input is a no-op.
func Anomalies(ctx context.Context, cfg config.PublishConfig, anomalies []model.Anomaly, logger *slog.Logger) error {
	if !cfg.Enabled || len(anomalies) == 0 {
		return nil
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	defer w.Close()

	msgs := make([]kafka.Message, 0, len(anomalies))
	for _, a := range anomalies {
		data, err := json.Marshal(a)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{Key: []byte(a.Plate), Value: data})
	}
	if err := w.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("published anomalies", "topic", cfg.Topic, "count", len(msgs))
	}
	return nil
}
