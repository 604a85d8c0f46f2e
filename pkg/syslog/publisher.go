package syslog

import (
	"encoding/json"
	"strconv"

	"github.com/nats-io/nats.go"

	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/models"
)

// SubjectEvents carries every ingested event; alerts additionally go to
// SubjectAlertPrefix plus the numeric severity for events at error
// severity or above.
const (
	SubjectEvents      = "syslog.events"
	SubjectAlertPrefix = "syslog.alerts."

	alertMaxSeverity = 3
)

// Publisher streams events over core NATS. Publishing is fire-and-
// forget: a broker hiccup is logged and the event still lands in the
// database through the collector.
type Publisher struct {
	nc     *nats.Conn
	logger logger.Logger
}

// NewPublisher returns a publisher on nc.
func NewPublisher(nc *nats.Conn, log logger.Logger) *Publisher {
	return &Publisher{nc: nc, logger: log}
}

// Publish sends the event to the events subject, plus the severity
// alert subject when it is severe enough.
func (p *Publisher) Publish(event models.SyslogEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to encode syslog event")
		return
	}

	if err := p.nc.Publish(SubjectEvents, data); err != nil {
		p.logger.Error().Err(err).Msg("Failed to publish syslog event")
	}

	if event.Severity <= alertMaxSeverity {
		subject := SubjectAlertPrefix + strconv.Itoa(event.Severity)
		if err := p.nc.Publish(subject, data); err != nil {
			p.logger.Error().Err(err).Str("subject", subject).Msg("Failed to publish syslog alert")
		}
	}
}
