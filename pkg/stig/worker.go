package stig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/models"
	"github.com/netnynja/netnynja/pkg/natsutil"
)

// Audit job subjects. Requests arrive on stig.audits.<job_id> and the
// completion event goes out on stig.results.<job_id>.
const (
	StreamName           = "STIG_AUDITS"
	SubjectAudits        = "stig.audits.*"
	SubjectAuditPrefix   = "stig.audits."
	SubjectResultsPrefix = "stig.results."
)

const (
	consumerName = "audit-job-processor"

	// Audits walk every rule of a benchmark, so the ack window is wide.
	consumerAckWait    = 5 * time.Minute
	consumerMaxDeliver = 3
	fetchWait          = 5 * time.Second
)

// AuditRequest is the message queued to run one audit job.
type AuditRequest struct {
	JobID uuid.UUID `json:"job_id"`
}

// auditCompletion is published once a job's results are stored.
type auditCompletion struct {
	JobID  uuid.UUID `json:"job_id"`
	Status string    `json:"status"`
}

//go:generate mockgen -destination=mock_stig.go -package=stig github.com/netnynja/netnynja/pkg/stig JobStore,RuleSource

// JobStore is the persistence surface the worker drives.
type JobStore interface {
	Job(ctx context.Context, id uuid.UUID) (models.AuditJob, error)
	Target(ctx context.Context, id uuid.UUID) (models.AuditTarget, error)
	Definition(ctx context.Context, id uuid.UUID) (models.STIGDefinition, error)
	SetJobStatus(ctx context.Context, id uuid.UUID, status models.AuditStatus, message string) error
	InsertResults(ctx context.Context, results []models.AuditResult) error
	StampTargetAudit(ctx context.Context, targetID uuid.UUID) error
}

// RuleSource resolves a benchmark id to its rules.
type RuleSource interface {
	Rules(benchmarkID string) ([]models.STIGRule, error)
}

// Worker consumes audit job requests, evaluates the target's stored
// configuration against the benchmark, and persists the findings. It
// implements lifecycle.Service.
type Worker struct {
	js     jetstream.JetStream
	store  JobStore
	rules  RuleSource
	logger logger.Logger

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewWorker ensures the audit stream exists and returns a ready worker.
func NewWorker(ctx context.Context, js jetstream.JetStream, store JobStore, rules RuleSource, log logger.Logger) (*Worker, error) {
	_, err := natsutil.EnsureStream(ctx, js, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"stig.audits.*", "stig.results.*"},
		Retention: jetstream.LimitsPolicy,
		MaxMsgs:   100_000,
		MaxAge:    24 * time.Hour,
	}, log)
	if err != nil {
		return nil, err
	}

	return &Worker{
		js:      js,
		store:   store,
		rules:   rules,
		logger:  log,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}, nil
}

// RequestAudit queues an audit job for processing.
func (w *Worker) RequestAudit(ctx context.Context, jobID uuid.UUID) error {
	data, err := json.Marshal(AuditRequest{JobID: jobID})
	if err != nil {
		return fmt.Errorf("marshal audit request: %w", err)
	}

	if _, err := w.js.Publish(ctx, SubjectAuditPrefix+jobID.String(), data); err != nil {
		return fmt.Errorf("publish audit request %s: %w", jobID, err)
	}

	return nil
}

// Start consumes audit requests until ctx is canceled or Stop is called.
func (w *Worker) Start(ctx context.Context) error {
	defer close(w.stopped)

	consumer, err := natsutil.EnsurePullConsumer(ctx, w.js, StreamName, jetstream.ConsumerConfig{
		Durable:       consumerName,
		FilterSubject: SubjectAudits,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       consumerAckWait,
		MaxDeliver:    consumerMaxDeliver,
	})
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-runCtx.Done():
		case <-w.done:
			cancel()
		}
	}()

	w.logger.Info().
		Str("consumer", consumerName).
		Str("subject", SubjectAudits).
		Msg("Audit worker started")

	w.consume(runCtx, consumer)

	return nil
}

// Stop signals the consume loop and waits for it to drain within the ctx
// deadline.
func (w *Worker) Stop(ctx context.Context) error {
	w.closeOnce.Do(func() { close(w.done) })

	select {
	case <-w.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) consume(ctx context.Context, consumer jetstream.Consumer) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		batch, err := consumer.Fetch(1, jetstream.FetchMaxWait(fetchWait))
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			w.logger.Error().Err(err).Msg("Fetch failed")
			time.Sleep(time.Second)

			continue
		}

		for msg := range batch.Messages() {
			w.handleAuditRequest(ctx, msg)
		}

		if err := batch.Error(); err != nil && ctx.Err() == nil {
			w.logger.Debug().Err(err).Msg("Fetch ended with error")
		}
	}
}

// handleAuditRequest processes one queued job. Requests that can never
// succeed (malformed payload, vanished job, missing target, definition, or
// stored configuration) are acked so they do not redeliver; transient
// failures nak for retry.
func (w *Worker) handleAuditRequest(ctx context.Context, msg jetstream.Msg) {
	var req AuditRequest

	if err := json.Unmarshal(msg.Data(), &req); err != nil || req.JobID == uuid.Nil {
		w.logger.Warn().Str("subject", msg.Subject()).Msg("Discarding malformed audit request")
		_ = msg.Ack()

		return
	}

	job, err := w.store.Job(ctx, req.JobID)
	if errors.Is(err, ErrJobNotFound) {
		w.logger.Warn().Str("job_id", req.JobID.String()).Msg("Audit job not found")
		_ = msg.Ack()

		return
	}

	if err != nil {
		w.failJob(ctx, req.JobID, err)
		_ = msg.Nak()

		return
	}

	w.logger.Info().Str("job_id", job.ID.String()).Msg("Processing audit job")

	if err := w.store.SetJobStatus(ctx, job.ID, models.AuditRunning, ""); err != nil {
		w.failJob(ctx, job.ID, err)
		_ = msg.Nak()

		return
	}

	target, targetErr := w.store.Target(ctx, job.TargetID)
	definition, defErr := w.store.Definition(ctx, job.DefinitionID)

	if errors.Is(targetErr, ErrTargetNotFound) || errors.Is(defErr, ErrDefinitionNotFound) {
		w.markUnrunnable(ctx, job.ID, "Target or definition not found")
		_ = msg.Ack()

		return
	}

	if targetErr != nil {
		w.failJob(ctx, job.ID, targetErr)
		_ = msg.Nak()

		return
	}

	if defErr != nil {
		w.failJob(ctx, job.ID, defErr)
		_ = msg.Nak()

		return
	}

	if target.ConfigText == "" {
		w.markUnrunnable(ctx, job.ID, "Target has no stored configuration")
		_ = msg.Ack()

		return
	}

	rules, err := w.rules.Rules(definition.BenchmarkID)
	if err != nil {
		w.failJob(ctx, job.ID, err)
		_ = msg.Nak()

		return
	}

	results := EvaluateConfig(w.logger, job.ID, target.ConfigText, rules)

	if err := w.store.InsertResults(ctx, results); err != nil {
		w.failJob(ctx, job.ID, err)
		_ = msg.Nak()

		return
	}

	if err := w.store.StampTargetAudit(ctx, target.ID); err != nil {
		w.failJob(ctx, job.ID, err)
		_ = msg.Nak()

		return
	}

	if err := w.store.SetJobStatus(ctx, job.ID, models.AuditCompleted, ""); err != nil {
		w.failJob(ctx, job.ID, err)
		_ = msg.Nak()

		return
	}

	w.logger.Info().
		Str("job_id", job.ID.String()).
		Int("results_count", len(results)).
		Msg("Audit job completed")

	w.publishCompletion(ctx, job.ID)

	_ = msg.Ack()
}

// publishCompletion announces a finished job. The job is already
// committed, so a publish failure only logs; redelivering the whole job
// for a lost notification would duplicate its results.
func (w *Worker) publishCompletion(ctx context.Context, jobID uuid.UUID) {
	data, err := json.Marshal(auditCompletion{JobID: jobID, Status: string(models.AuditCompleted)})
	if err != nil {
		w.logger.Error().Err(err).Str("job_id", jobID.String()).Msg("Failed to encode audit completion")

		return
	}

	if _, err := w.js.Publish(ctx, SubjectResultsPrefix+jobID.String(), data); err != nil {
		w.logger.Error().Err(err).Str("job_id", jobID.String()).Msg("Failed to publish audit completion")
	}
}

func (w *Worker) markUnrunnable(ctx context.Context, jobID uuid.UUID, reason string) {
	w.logger.Warn().Str("job_id", jobID.String()).Str("reason", reason).Msg("Audit job cannot run")

	if err := w.store.SetJobStatus(ctx, jobID, models.AuditFailed, reason); err != nil {
		w.logger.Error().Err(err).Str("job_id", jobID.String()).Msg("Failed to record audit job failure")
	}
}

func (w *Worker) failJob(ctx context.Context, jobID uuid.UUID, cause error) {
	w.logger.Error().Err(cause).Str("job_id", jobID.String()).Msg("Audit job failed")

	if err := w.store.SetJobStatus(ctx, jobID, models.AuditFailed, cause.Error()); err != nil {
		w.logger.Error().Err(err).Str("job_id", jobID.String()).Msg("Failed to record audit job failure")
	}
}
