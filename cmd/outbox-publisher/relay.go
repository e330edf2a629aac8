package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvcampos/oticaflow-backend/pkg/config"
	"github.com/mvcampos/oticaflow-backend/pkg/db/models"
	"github.com/mvcampos/oticaflow-backend/pkg/enums"
	"github.com/mvcampos/oticaflow-backend/pkg/logger"
	"github.com/mvcampos/oticaflow-backend/pkg/outbox/registry"
)

const (
	fallbackBatchSize = 50
	fallbackPollMs    = 500
	fallbackAttempts  = 10
	publishTimeout    = 15 * time.Second
	maxIdleWait       = 10 * time.Second
	jitterWindow      = 250 * time.Millisecond
)

type txRunner interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type brokerClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type eventSource interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type deadLetterSink interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type eventResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// publisher sends one message and blocks until the broker acks it.
type publisher interface {
	Publish(context.Context, *gcppubsub.Message) (string, error)
}

type RelayParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         txRunner
	Broker     brokerClient
	Source     eventSource
	Resolver   eventResolver
	DeadLetter deadLetterSink
	// Publishers overrides the per-topic publishers normally built from
	// Broker and the configured sale/lab topic names.
	Publishers map[string]publisher
}

// Relay drains committed outbox rows to the sale and lab topics. Rows that
// can never publish (unknown event type, malformed envelope, attempts
// exhausted) move to the dead-letter table so they stop blocking the queue.
type Relay struct {
	logg        *logger.Logger
	db          txRunner
	broker      brokerClient
	source      eventSource
	resolver    eventResolver
	deadLetter  deadLetterSink
	publishers  map[string]publisher
	batchSize   int
	maxAttempts int
	poll        time.Duration
}

func NewRelay(params RelayParams) (*Relay, error) {
	if params.Config == nil || params.Logger == nil {
		return nil, errors.New("config and logger are required")
	}
	if params.DB == nil || params.Broker == nil {
		return nil, errors.New("database and broker clients are required")
	}
	if params.Source == nil || params.Resolver == nil || params.DeadLetter == nil {
		return nil, errors.New("outbox source, resolver and dead-letter sink are required")
	}

	publishers := params.Publishers
	if publishers == nil {
		publishers = make(map[string]publisher, 2)
		for _, topic := range []string{params.Config.PubSub.SalesTopic, params.Config.PubSub.LabTopic} {
			if topic == "" {
				continue
			}
			if pub := params.Broker.Publisher(topic); pub != nil {
				publishers[topic] = topicPublisher{pub}
			}
		}
	}

	outboxCfg := params.Config.Outbox
	batch := outboxCfg.BatchSize
	if batch <= 0 {
		batch = fallbackBatchSize
	}
	pollMs := outboxCfg.PollIntervalMS
	if pollMs <= 0 {
		pollMs = fallbackPollMs
	}
	attempts := outboxCfg.MaxAttempts
	if attempts <= 0 {
		attempts = fallbackAttempts
	}

	return &Relay{
		logg:        params.Logger,
		db:          params.DB,
		broker:      params.Broker,
		source:      params.Source,
		resolver:    params.Resolver,
		deadLetter:  params.DeadLetter,
		publishers:  publishers,
		batchSize:   batch,
		maxAttempts: attempts,
		poll:        time.Duration(pollMs) * time.Millisecond,
	}, nil
}

// Run polls until the context is canceled. An empty fetch idles for the poll
// interval; batch errors back off so a broken dependency is not hammered.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.checkDependencies(ctx); err != nil {
		return err
	}

	wait := pollBackoff{base: r.poll, maxWait: maxIdleWait}
	for {
		if err := ctx.Err(); err != nil {
			r.logg.Info(ctx, "outbox relay stopping")
			return err
		}

		drained, err := r.drainOnce(ctx)
		switch {
		case err != nil:
			r.logg.Error(ctx, "outbox batch failed", err)
			if err := r.idle(ctx, wait.bump()); err != nil {
				return err
			}
		case drained:
			wait.reset()
		default:
			wait.reset()
			if err := r.idle(ctx, jittered(r.poll)); err != nil {
				return err
			}
		}
	}
}

func (r *Relay) checkDependencies(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := r.broker.Ping(ctx); err != nil {
		return fmt.Errorf("pubsub ping failed: %w", err)
	}
	return nil
}

// drainOnce fetches and dispatches one batch inside a single transaction so
// row bookkeeping commits atomically with the fetch lock.
func (r *Relay) drainOnce(ctx context.Context) (bool, error) {
	var drained bool
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := r.source.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return err
		}
		drained = len(events) > 0
		for _, event := range events {
			if err := r.dispatch(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	return drained, err
}

// dispatch publishes one row and records the outcome on the batch
// transaction. Publish failures mark the row and move on; only bookkeeping
// failures abort the batch.
func (r *Relay) dispatch(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) error {
	resolved, err := r.resolver.Resolve(event)
	if err != nil {
		return r.moveToDeadLetter(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, err, "")
	}

	topic := resolved.Descriptor.Topic
	if err := r.publish(ctx, event, resolved, topic); err != nil {
		var nonRetry registry.NonRetryableError
		if errors.As(err, &nonRetry) {
			return r.moveToDeadLetter(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, err, topic)
		}
		if event.AttemptCount+1 >= r.maxAttempts {
			return r.moveToDeadLetter(ctx, tx, event, enums.OutboxDLQReasonMaxAttempts,
				fmt.Errorf("max publish attempts reached: %w", err), topic)
		}

		fields := r.rowFields(event, topic)
		fields["error"] = err.Error()
		r.logg.Warn(r.logg.WithFields(ctx, fields), "outbox publish failed")
		if markErr := r.source.MarkFailedTx(tx, event.ID, err); markErr != nil {
			return fmt.Errorf("mark failure %s: %w", event.ID, markErr)
		}
		return nil
	}

	if markErr := r.source.MarkPublishedTx(tx, event.ID); markErr != nil {
		return fmt.Errorf("mark published %s: %w", event.ID, markErr)
	}
	r.logg.Info(r.logg.WithFields(ctx, r.rowFields(event, topic)), "outbox event published")
	return nil
}

func (r *Relay) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent, topic string) error {
	pub, ok := r.publishers[topic]
	if !ok {
		return registry.NewNonRetryableError(fmt.Errorf("no publisher for topic %s", topic))
	}

	msg := &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	_, err := pub.Publish(publishCtx, msg)
	return err
}

func (r *Relay) moveToDeadLetter(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, topic string) error {
	fields := r.rowFields(event, topic)
	fields["error_reason"] = reason
	fields["error"] = cause.Error()
	r.logg.Warn(r.logg.WithFields(ctx, fields), "outbox event moved to dead letter")

	msg := cause.Error()
	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if err := r.deadLetter.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dead letter %s: %w", event.ID, err)
	}
	if err := r.source.MarkTerminalTx(tx, event.ID, cause, r.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	return nil
}

func (r *Relay) rowFields(event models.OutboxEvent, topic string) map[string]any {
	fields := map[string]any{
		"outbox_id":     event.ID.String(),
		"event_type":    event.EventType,
		"aggregate_id":  event.AggregateID.String(),
		"attempt_count": event.AttemptCount,
	}
	if topic != "" {
		fields["topic"] = topic
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func (r *Relay) idle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// pollBackoff doubles the idle wait after consecutive batch errors, capped at
// maxWait, so replicas stop hammering a broken dependency.
type pollBackoff struct {
	base    time.Duration
	maxWait time.Duration
	current time.Duration
}

func (b *pollBackoff) reset() {
	b.current = 0
}

func (b *pollBackoff) bump() time.Duration {
	switch {
	case b.current <= 0:
		b.current = b.base
	case b.current < b.maxWait:
		b.current *= 2
		if b.current > b.maxWait {
			b.current = b.maxWait
		}
	}
	return jittered(b.current)
}

// jittered spreads replica wakeups so they do not poll in lockstep.
func jittered(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(rand.Int63n(int64(jitterWindow)))
}

// topicPublisher adapts a pubsub publisher to the blocking publish the relay
// wants: send, then wait for the server-assigned message ID.
type topicPublisher struct {
	pub *gcppubsub.Publisher
}

func (t topicPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) (string, error) {
	return t.pub.Publish(ctx, msg).Get(ctx)
}
