package history

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

// KafkaSinkConfig configures the async hand-history producer.
type KafkaSinkConfig struct {
	Brokers        []string
	Topic          string
	MaxRetries     int
	RetryBackoff   time.Duration
	FlushFrequency time.Duration
	RequiredAcks   sarama.RequiredAcks
}

// message is the wire shape published for every completed hand.
type message struct {
	TableID    string          `json:"table_id"`
	HandNumber int             `json:"hand_number"`
	Winners    json.RawMessage `json:"winners"`
	Pots       json.RawMessage `json:"pots"`
	FinishedAt time.Time       `json:"finished_at"`
}

// KafkaSink publishes completed-hand records to Kafka asynchronously so a
// slow broker never backpressures the table's own goroutine.
type KafkaSink struct {
	producer sarama.AsyncProducer
	topic    string
	log      zerolog.Logger

	mu     sync.Mutex
	failed int64
}

// NewKafkaSink connects an async producer to cfg.Brokers.
func NewKafkaSink(cfg KafkaSinkConfig, log zerolog.Logger) (*KafkaSink, error) {
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = false
	sc.Producer.Return.Errors = true
	sc.Producer.Retry.Max = cfg.MaxRetries
	sc.Producer.Retry.Backoff = cfg.RetryBackoff
	sc.Producer.Flush.Frequency = cfg.FlushFrequency
	sc.Producer.RequiredAcks = cfg.RequiredAcks

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, err
	}

	k := &KafkaSink{
		producer: producer,
		topic:    cfg.Topic,
		log:      log.With().Str("component", "history_kafka_sink").Logger(),
	}
	go k.handleErrors()
	return k, nil
}

func (k *KafkaSink) handleErrors() {
	for err := range k.producer.Errors() {
		k.mu.Lock()
		k.failed++
		k.mu.Unlock()
		k.log.Warn().Err(err).Msg("failed to publish hand history record")
	}
}

// Publish implements Sink.
func (k *KafkaSink) Publish(r Record) {
	winners, err := json.Marshal(r.Winners)
	if err != nil {
		k.log.Error().Err(err).Msg("failed to marshal winners")
		return
	}
	pots, err := json.Marshal(r.Pots)
	if err != nil {
		k.log.Error().Err(err).Msg("failed to marshal pots")
		return
	}

	msg := message{
		TableID:    r.TableID,
		HandNumber: r.HandNumber,
		Winners:    winners,
		Pots:       pots,
		FinishedAt: r.FinishedAt,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		k.log.Error().Err(err).Msg("failed to marshal hand history message")
		return
	}

	k.producer.Input() <- &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(r.TableID),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("hand_number"), Value: []byte(strconv.Itoa(r.HandNumber))},
		},
		Timestamp: r.FinishedAt,
	}
}

// Close shuts the producer down, flushing any buffered messages.
func (k *KafkaSink) Close() error {
	return k.producer.Close()
}
