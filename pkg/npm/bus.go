package npm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/models"
	"github.com/netnynja/netnynja/pkg/natsutil"
)

// Subjects shared with the rest of the platform.
const (
	StreamName              = "NPM_METRICS"
	SubjectDeviceMetrics    = "npm.metrics.device"
	SubjectInterfaceMetrics = "npm.metrics.interface"
	SubjectDeviceStatus     = "npm.devices.status"
	SubjectPollRequest      = "npm.poll.request"
	SubjectAlerts           = "shared.alerts.npm"
)

const (
	pollConsumerName   = "npm-poll-worker"
	statusConsumerName = "npm-status-handler"

	consumerAckWait    = 60 * time.Second
	consumerMaxDeliver = 3
	consumerFetchBatch = 10
	consumerFetchWait  = 5 * time.Second

	alertSeverityCritical = "critical"
)

var errEmptyPollRequest = errors.New("poll request missing device_id")

// StatusEvent records a device status transition observed after a poll.
type StatusEvent struct {
	DeviceID       uuid.UUID           `json:"device_id"`
	Status         models.DeviceStatus `json:"status"`
	PreviousStatus models.DeviceStatus `json:"previous_status,omitempty"`
	Timestamp      time.Time           `json:"timestamp"`
}

// Alert is the payload published to the shared alerts subject.
type Alert struct {
	DeviceID  uuid.UUID         `json:"device_id"`
	Message   string            `json:"message"`
	Severity  string            `json:"severity"`
	Details   map[string]string `json:"details,omitempty"`
	Source    string            `json:"source"`
	Timestamp time.Time         `json:"timestamp"`
}

// PollRequest asks for an immediate poll of one device.
type PollRequest struct {
	DeviceID uuid.UUID `json:"device_id"`
}

// interfaceBatch groups one poll's interface rows into a single message.
type interfaceBatch struct {
	DeviceID   uuid.UUID                 `json:"device_id"`
	Interfaces []models.InterfaceMetrics `json:"interfaces"`
}

// Bus is the NATS control and fan-out plane of the poller: metrics and
// status go out through JetStream, alerts over plain NATS, and poll
// requests come back in through a durable consumer.
type Bus struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger logger.Logger
}

// NewBus ensures the metrics stream exists and returns a ready Bus.
func NewBus(ctx context.Context, nc *nats.Conn, js jetstream.JetStream, log logger.Logger) (*Bus, error) {
	_, err := natsutil.EnsureStream(ctx, js, jetstream.StreamConfig{
		Name: StreamName,
		Subjects: []string{
			"npm.metrics.*",
			"npm.devices.*",
			"npm.interfaces.*",
			"npm.poll.*",
		},
		Retention: jetstream.LimitsPolicy,
		MaxMsgs:   1_000_000,
		MaxBytes:  2 * 1024 * 1024 * 1024,
		MaxAge:    time.Hour,
	}, log)
	if err != nil {
		return nil, err
	}

	return &Bus{nc: nc, js: js, logger: log}, nil
}

// PublishDeviceMetrics publishes one device reading to JetStream.
func (b *Bus) PublishDeviceMetrics(ctx context.Context, m models.DeviceMetrics) error {
	return b.publish(ctx, SubjectDeviceMetrics, m)
}

// PublishInterfaceMetrics publishes one poll's interface rows as a single
// message.
func (b *Bus) PublishInterfaceMetrics(ctx context.Context, deviceID uuid.UUID, ifaces []models.InterfaceMetrics) error {
	if len(ifaces) == 0 {
		return nil
	}

	return b.publish(ctx, SubjectInterfaceMetrics, interfaceBatch{DeviceID: deviceID, Interfaces: ifaces})
}

// PublishStatusEvent publishes a device status transition.
func (b *Bus) PublishStatusEvent(ctx context.Context, ev StatusEvent) error {
	return b.publish(ctx, SubjectDeviceStatus, ev)
}

// RequestPoll queues an immediate poll for the given device.
func (b *Bus) RequestPoll(ctx context.Context, deviceID uuid.UUID) error {
	return b.publish(ctx, SubjectPollRequest, PollRequest{DeviceID: deviceID})
}

// PublishAlert sends an alert over plain NATS so it is delivered
// immediately rather than retained in the stream.
func (b *Bus) PublishAlert(alert Alert) error {
	alert.Source = "npm"

	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	if err := b.nc.Publish(SubjectAlerts, data); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}

	b.logger.Info().
		Str("device_id", alert.DeviceID.String()).
		Str("severity", alert.Severity).
		Msg("Alert published")

	return nil
}

func (b *Bus) publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", subject, err)
	}

	if _, err := b.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	return nil
}

// ConsumePollRequests processes on-demand poll requests until ctx is
// canceled. poll runs each request outside the poll cadence.
func (b *Bus) ConsumePollRequests(ctx context.Context, poll func(context.Context, uuid.UUID) error) error {
	consumer, err := natsutil.EnsurePullConsumer(ctx, b.js, StreamName, jetstream.ConsumerConfig{
		Durable:       pollConsumerName,
		FilterSubject: SubjectPollRequest,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       consumerAckWait,
		MaxDeliver:    consumerMaxDeliver,
	})
	if err != nil {
		return err
	}

	b.consumeLoop(ctx, consumer, SubjectPollRequest, func(msg jetstream.Msg) error {
		var req PollRequest
		if err := json.Unmarshal(msg.Data(), &req); err != nil {
			return fmt.Errorf("decode poll request: %w", err)
		}

		if req.DeviceID == uuid.Nil {
			return errEmptyPollRequest
		}

		b.logger.Info().Str("device_id", req.DeviceID.String()).Msg("Processing poll request")

		return poll(ctx, req.DeviceID)
	})

	return nil
}

// ConsumeStatusEvents watches device status transitions and raises a
// critical alert when a device drops from up to down.
func (b *Bus) ConsumeStatusEvents(ctx context.Context) error {
	consumer, err := natsutil.EnsurePullConsumer(ctx, b.js, StreamName, jetstream.ConsumerConfig{
		Durable:       statusConsumerName,
		FilterSubject: SubjectDeviceStatus,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       consumerAckWait,
		MaxDeliver:    consumerMaxDeliver,
	})
	if err != nil {
		return err
	}

	b.consumeLoop(ctx, consumer, SubjectDeviceStatus, func(msg jetstream.Msg) error {
		var ev StatusEvent
		if err := json.Unmarshal(msg.Data(), &ev); err != nil {
			return fmt.Errorf("decode status event: %w", err)
		}

		return b.handleStatusEvent(ev)
	})

	return nil
}

func (b *Bus) handleStatusEvent(ev StatusEvent) error {
	b.logger.Debug().
		Str("device_id", ev.DeviceID.String()).
		Str("status", string(ev.Status)).
		Str("previous_status", string(ev.PreviousStatus)).
		Msg("Device status update")

	if ev.PreviousStatus != models.DeviceStatusUp || ev.Status != models.DeviceStatusDown {
		return nil
	}

	return b.PublishAlert(Alert{
		DeviceID: ev.DeviceID,
		Message:  "Device is no longer responding",
		Severity: alertSeverityCritical,
		Details: map[string]string{
			"previous_status": string(ev.PreviousStatus),
			"current_status":  string(ev.Status),
		},
	})
}

func (b *Bus) consumeLoop(ctx context.Context, consumer jetstream.Consumer, subject string, handle func(jetstream.Msg) error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		batch, err := consumer.Fetch(consumerFetchBatch, jetstream.FetchMaxWait(consumerFetchWait))
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			b.logger.Error().Err(err).Str("subject", subject).Msg("Fetch failed")
			time.Sleep(time.Second)

			continue
		}

		for msg := range batch.Messages() {
			if err := handle(msg); err != nil {
				b.logger.Error().Err(err).Str("subject", subject).Msg("Message processing failed")

				_ = msg.Nak()

				continue
			}

			_ = msg.Ack()
		}

		if err := batch.Error(); err != nil && ctx.Err() == nil {
			b.logger.Debug().Err(err).Str("subject", subject).Msg("Fetch ended with error")
		}
	}
}
