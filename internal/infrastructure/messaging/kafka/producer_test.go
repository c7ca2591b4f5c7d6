package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolDescriptor/internal/config"
	appErrors "github.com/turtacn/MolDescriptor/pkg/errors"
)

type mockKafkaWriter struct {
	mu        sync.Mutex
	written   []kafka.Message
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	closes    int
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.writeFunc != nil {
		if err := m.writeFunc(ctx, msgs...); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.written = append(m.written, msgs...)
	m.mu.Unlock()
	return nil
}

func (m *mockKafkaWriter) Close() error {
	m.closes++
	return nil
}

func newTestProducer(w *mockKafkaWriter) *Producer {
	return newProducer(w, ProducerConfig{Brokers: []string{"localhost:9092"}, MaxMessageBytes: 64}, nil)
}

func TestPublish_Success(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), &ProducerMessage{
		Topic:   TopicCalcRequests,
		Key:     []byte("job-1"),
		Value:   []byte(`{"a":1}`),
		Headers: map[string]string{"event_type": "x"},
	})
	require.NoError(t, err)
	require.Len(t, w.written, 1)
	assert.Equal(t, TopicCalcRequests, w.written[0].Topic)
	assert.Equal(t, []byte("job-1"), w.written[0].Key)
	assert.Equal(t, []kafka.Header{{Key: "event_type", Value: []byte("x")}}, w.written[0].Headers)
	assert.False(t, w.written[0].Time.IsZero())

	sent, failed, bytes := p.Stats()
	assert.Equal(t, int64(1), sent)
	assert.Zero(t, failed)
	assert.Equal(t, int64(7), bytes)
}

func TestPublish_Validation(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	ctx := context.Background()

	assert.True(t, appErrors.IsCode(p.Publish(ctx, &ProducerMessage{Value: []byte("x")}), appErrors.ErrCodeValidation))
	assert.True(t, appErrors.IsCode(p.Publish(ctx, &ProducerMessage{Topic: "t"}), appErrors.ErrCodeValidation))
	big := make([]byte, 65)
	assert.True(t, appErrors.IsCode(p.Publish(ctx, &ProducerMessage{Topic: "t", Value: big}), appErrors.ErrCodeValidation))
}

func TestPublish_WriterError(t *testing.T) {
	w := &mockKafkaWriter{writeFunc: func(context.Context, ...kafka.Message) error { return errors.New("broker down") }}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeMessagePublish))
	assert.Contains(t, err.Error(), "broker down")

	_, failed, _ := p.Stats()
	assert.Equal(t, int64(1), failed)
}

func TestPublish_AfterClose(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, w.closes)

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")})
	assert.ErrorIs(t, err, ErrProducerClosed)
}

func TestPublishEvent(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newProducer(w, ProducerConfig{Brokers: []string{"b"}}, nil)

	err := p.PublishEvent(context.Background(), TopicCalcResults, "job-9", EventCalculationCompleted, map[string]int{"molecules": 3})
	require.NoError(t, err)
	require.Len(t, w.written, 1)

	env, err := MessageToEventEnvelope(fromKafkaMessage(w.written[0]))
	require.NoError(t, err)
	assert.Equal(t, EventCalculationCompleted, env.EventType)
	assert.Equal(t, "moldesc", env.Source)

	var payload map[string]int
	require.NoError(t, env.DecodePayload(&payload))
	assert.Equal(t, 3, payload["molecules"])
}

func TestProducerConfigFrom(t *testing.T) {
	cfg := ProducerConfigFrom(config.KafkaConfig{Brokers: []string{"k:9092"}, ProducerRetries: 5, TimeoutMS: 2500})
	assert.Equal(t, []string{"k:9092"}, cfg.Brokers)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, "all", cfg.Acks)
	assert.Equal(t, int64(2500), cfg.WriteTimeout.Milliseconds())
}

func TestValidateProducerConfig(t *testing.T) {
	assert.Error(t, ValidateProducerConfig(ProducerConfig{}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b"}, MaxRetries: -1}))
	assert.NoError(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b"}}))
}

//Personal.AI order the ending
