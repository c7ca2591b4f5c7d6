package calculation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolDescriptor/internal/config"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/prometheus"
	appErrors "github.com/turtacn/MolDescriptor/pkg/errors"
	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
	"github.com/turtacn/MolDescriptor/pkg/types/molecule"
)

func jobMessage(t *testing.T, eventType string, payload interface{}) *kafka.Message {
	t.Helper()
	env, err := kafka.NewEventEnvelope(eventType, "test", payload)
	require.NoError(t, err)
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	return &kafka.Message{Topic: kafka.TopicCalcRequests, Value: raw}
}

func TestJobHandler_ProcessesJob(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("PublishEvent", mock.Anything, kafka.TopicCalcResults, mock.Anything, kafka.EventCalculationCompleted, mock.Anything).Return(nil)
	svc := newTestService(t, config.CalculatorConfig{}, WithEventPublisher(pub))

	job := descriptor.NewCalculationJob(molecule.FromSMILES("CCO"), "Radius")
	h := NewJobHandler(svc, nil)
	require.NoError(t, h(context.Background(), jobMessage(t, kafka.EventCalculationRequested, job)))
	pub.AssertNumberOfCalls(t, "PublishEvent", 1)
}

func TestJobHandler_IgnoresOtherEvents(t *testing.T) {
	h := NewJobHandler(newTestService(t, config.CalculatorConfig{}), nil)
	assert.NoError(t, h(context.Background(), jobMessage(t, kafka.EventCalculationCompleted, map[string]string{"x": "y"})))
}

func TestJobHandler_RejectsBadPayloads(t *testing.T) {
	h := NewJobHandler(newTestService(t, config.CalculatorConfig{}), nil)

	err := h(context.Background(), &kafka.Message{Value: []byte("not json")})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeMessageDecode))

	err = h(context.Background(), jobMessage(t, kafka.EventCalculationRequested, descriptor.CalculationJob{JobID: "j1"}))
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeMessageDecode))
}

func TestInstrumentHandler(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "handler_test"}, nil)
	require.NoError(t, err)
	h := InstrumentHandler(NewJobHandler(newTestService(t, config.CalculatorConfig{}), nil), prometheus.NewAppMetrics(collector))

	assert.Error(t, h(context.Background(), &kafka.Message{Topic: kafka.TopicCalcRequests, Value: []byte("{")}))

	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `handler_test_mq_messages_total{status="error",topic="moldesc.calc.requests"} 1`)
}

func TestInstrumentHandler_NilMetrics(t *testing.T) {
	called := false
	h := InstrumentHandler(func(context.Context, *kafka.Message) error { called = true; return nil }, nil)
	require.NoError(t, h(context.Background(), &kafka.Message{}))
	assert.True(t, called)
}

//Personal.AI order the ending
