package npm

import (
	"context"

	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/models"
)

// Sink persists poll results and fans them out. Database writes are
// authoritative and fail the poll; TSDB pushes and bus publishes are best
// effort and only logged.
type Sink struct {
	store  DeviceStore
	tsdb   *TSDBClient
	bus    *Bus
	logger logger.Logger
}

// NewSink wires the sink. tsdb and bus may be nil to disable those
// destinations.
func NewSink(store DeviceStore, tsdb *TSDBClient, bus *Bus, log logger.Logger) *Sink {
	return &Sink{store: store, tsdb: tsdb, bus: bus, logger: log}
}

// Store implements MetricsSink.
func (s *Sink) Store(ctx context.Context, target models.PollTarget, metrics models.DeviceMetrics, ifaces []models.InterfaceMetrics) error {
	if err := s.store.InsertDeviceMetrics(ctx, metrics); err != nil {
		return err
	}

	ids, err := s.store.PersistInterfaces(ctx, ifaces)
	if err != nil {
		return err
	}

	update := statusUpdate(metrics)
	if err := s.store.UpdateDeviceStatus(ctx, update); err != nil {
		return err
	}

	if s.tsdb != nil {
		s.tsdb.PushDeviceMetrics(ctx, metrics)

		for i := range ifaces {
			s.tsdb.PushInterfaceMetrics(ctx, ids[i], ifaces[i])
		}
	}

	if s.bus != nil {
		s.fanOut(ctx, target, metrics, ifaces, update.Status)
	}

	return nil
}

func (s *Sink) fanOut(ctx context.Context, target models.PollTarget, metrics models.DeviceMetrics, ifaces []models.InterfaceMetrics, status models.DeviceStatus) {
	if err := s.bus.PublishDeviceMetrics(ctx, metrics); err != nil {
		s.logger.Warn().Err(err).
			Str("device_id", metrics.DeviceID.String()).
			Msg("Device metrics publish failed")
	}

	if err := s.bus.PublishInterfaceMetrics(ctx, metrics.DeviceID, ifaces); err != nil {
		s.logger.Warn().Err(err).
			Str("device_id", metrics.DeviceID.String()).
			Msg("Interface metrics publish failed")
	}

	if target.Status == status {
		return
	}

	ev := StatusEvent{
		DeviceID:       metrics.DeviceID,
		Status:         status,
		PreviousStatus: target.Status,
		Timestamp:      metrics.Timestamp,
	}

	if err := s.bus.PublishStatusEvent(ctx, ev); err != nil {
		s.logger.Warn().Err(err).
			Str("device_id", metrics.DeviceID.String()).
			Msg("Status event publish failed")
	}
}

// statusUpdate derives the device row changes from one poll result. SNMP
// status stays unknown rather than down when uptime never answered, since
// an unreachable agent and a device without SNMP look the same here.
func statusUpdate(m models.DeviceMetrics) StatusUpdate {
	status := models.DeviceStatusDown
	if m.IsAvailable {
		status = models.DeviceStatusUp
	}

	icmpStatus := "down"
	if m.ICMPReachable != nil && *m.ICMPReachable {
		icmpStatus = "up"
	}

	snmpStatus := "unknown"
	if m.UptimeSeconds != nil {
		snmpStatus = "up"
	}

	return StatusUpdate{
		DeviceID:      m.DeviceID,
		Status:        status,
		ICMPStatus:    icmpStatus,
		SNMPStatus:    snmpStatus,
		PolledAt:      m.Timestamp,
		ICMPAttempted: m.ICMPReachable != nil,
		SNMPAttempted: m.UptimeSeconds != nil,
	}
}
