package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Job types carried in JobMessage.JobType.
const (
	JobAssessTargets = "assess_targets"
	JobHealthCheck   = "health_check"
)

// ErrMalformedMessage is returned for a message body that is not a JobMessage.
var ErrMalformedMessage = errors.New("malformed job message")

// JobMessage is the Pub/Sub message body.
type JobMessage struct {
	JobType string `json:"job_type"`
}

// PauseChecker reports whether batch assessment is paused. *featureflags.Service implements it.
type PauseChecker interface {
	IsBatchAssessmentPaused(ctx context.Context) bool
}

// healthCheckPoint is assessed by the health_check job.
var healthCheckPoint = Point{Lat: 51.5074, Lon: -0.1278}

// JobHandlerConfig holds configuration for the job handler.
type JobHandlerConfig struct {
	AssessJob *AssessJob
	Flags     PauseChecker // optional
	Metrics   *Metrics     // optional
	Clock     clockwork.Clock
	Logger    zerolog.Logger
}

// JobHandler dispatches job messages independently of the transport.
type JobHandler struct {
	assessJob *AssessJob
	flags     PauseChecker
	metrics   *Metrics
	clock     clockwork.Clock
	logger    zerolog.Logger
}

// NewJobHandler creates a new job handler.
func NewJobHandler(cfg JobHandlerConfig) *JobHandler {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &JobHandler{
		assessJob: cfg.AssessJob,
		flags:     cfg.Flags,
		metrics:   cfg.Metrics,
		clock:     clock,
		logger:    cfg.Logger,
	}
}

// Handle processes one message body. A nil error means the message should be
// acknowledged; unknown job types and paused runs are acknowledged too.
func (h *JobHandler) Handle(ctx context.Context, data []byte) error {
	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.observe("", "error")
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	startTime := h.clock.Now()

	var err error
	switch msg.JobType {
	case JobAssessTargets:
		if h.flags != nil && h.flags.IsBatchAssessmentPaused(ctx) {
			h.logger.Info().Str("job_type", msg.JobType).Msg("batch assessment paused, skipping job")
			h.observe(msg.JobType, "skipped")
			return nil
		}
		err = h.handleAssessTargets(ctx)
	case JobHealthCheck:
		err = h.handleHealthCheck(ctx)
	default:
		h.logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		h.observe(msg.JobType, "unknown")
		return nil
	}

	if err != nil {
		h.observe(msg.JobType, "error")
		return err
	}

	h.observe(msg.JobType, "success")
	h.logger.Info().
		Str("job_type", msg.JobType).
		Dur("duration", h.clock.Since(startTime)).
		Msg("job completed successfully")
	return nil
}

func (h *JobHandler) handleAssessTargets(ctx context.Context) error {
	result := h.assessJob.Run(ctx)

	if ctx.Err() != nil {
		return fmt.Errorf("assessment interrupted: %w", ctx.Err())
	}

	// Consider it successful if no more than half failed.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many assessment failures: %d/%d", result.Failed, result.TotalPoints)
	}
	return nil
}

func (h *JobHandler) handleHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	band, err := h.assessJob.Check(ctx, healthCheckPoint)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	h.logger.Debug().Str("band", band.String()).Msg("health check passed")
	return nil
}

func (h *JobHandler) observe(jobType, outcome string) {
	if h.metrics == nil {
		return
	}
	if jobType == "" {
		jobType = "none"
	}
	h.metrics.JobsProcessed.WithLabelValues(jobType, outcome).Inc()
}

// PubSubHandler receives job messages from a Pub/Sub subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	jobs             *JobHandler
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Jobs             *JobHandler

	// MaxOutstandingMessages bounds concurrent jobs. Default: 2
	MaxOutstandingMessages int
	Logger                 zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	maxOutstanding := cfg.MaxOutstandingMessages
	if maxOutstanding <= 0 {
		maxOutstanding = 2
	}
	subscriber.ReceiveSettings.MaxOutstandingMessages = maxOutstanding
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		jobs:             cfg.Jobs,
		logger:           cfg.Logger,
	}, nil
}

// Start blocks processing Pub/Sub messages until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	if err := h.jobs.Handle(ctx, msg.Data); err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}
	msg.Ack()
}
