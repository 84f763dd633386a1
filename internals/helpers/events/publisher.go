package events

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

const (
	TopicPaymentSettled = "payment.settled"
	TopicPaymentRefund  = "payment.refunded"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

// NopPublisher dipakai kalau KAFKA_BROKER tidak diset.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }

type KafkaPublisher struct {
	producer sarama.SyncProducer
}

// NewKafkaPublisher mencoba konek beberapa kali; gagal → error (caller fallback ke NopPublisher).
func NewKafkaPublisher(brokers string, attempts int, wait time.Duration) (*KafkaPublisher, error) {
	addrs := []string{}
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	if len(addrs) == 0 {
		return nil, errors.New("no kafka broker configured")
	}
	if attempts <= 0 {
		attempts = 1
	}

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3

	var err error
	for i := 1; i <= attempts; i++ {
		var producer sarama.SyncProducer
		producer, err = sarama.NewSyncProducer(addrs, config)
		if err == nil {
			log.Printf("[KAFKA] producer ready brokers=%v", addrs)
			return &KafkaPublisher{producer: producer}, nil
		}
		log.Printf("[KAFKA] waiting for broker... (%d/%d) err=%v", i, attempts, err)
		time.Sleep(wait)
	}
	return nil, err
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(data),
		Timestamp: time.Now(),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return err
	}
	log.Printf("[KAFKA] published %s key=%s", topic, key)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
