package calculation

import (
	"context"
	"time"

	"github.com/turtacn/MolDescriptor/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolDescriptor/pkg/errors"
	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
)

// NewJobHandler adapts svc to the request topic. Envelopes of other event
// types are acknowledged and ignored.
func NewJobHandler(svc Service, logger logging.Logger) kafka.Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.Named("job-handler")

	return func(ctx context.Context, msg *kafka.Message) error {
		env, err := kafka.MessageToEventEnvelope(msg)
		if err != nil {
			return err
		}
		if env.EventType != kafka.EventCalculationRequested {
			logger.Warn("ignoring unexpected event type",
				logging.String("event_type", env.EventType),
				logging.String("event_id", env.EventID))
			return nil
		}

		var job descriptor.CalculationJob
		if err := env.DecodePayload(&job); err != nil {
			return err
		}
		if err := job.Validate(); err != nil {
			return errors.Wrap(err, errors.ErrCodeMessageDecode, "invalid job payload").WithDetail(env.EventID)
		}

		_, err = svc.ProcessJob(ctx, job)
		return err
	}
}

// InstrumentHandler records the duration and outcome of every delivery.
func InstrumentHandler(h kafka.Handler, metrics *prometheus.AppMetrics) kafka.Handler {
	if metrics == nil {
		return h
	}
	return func(ctx context.Context, msg *kafka.Message) error {
		start := time.Now()
		err := h(ctx, msg)
		prometheus.RecordMessage(metrics, msg.Topic, time.Since(start), err)
		return err
	}
}

//Personal.AI order the ending
