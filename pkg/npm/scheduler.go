// Package npm implements the network performance monitor: a cadence-driven
// poll scheduler, an SNMPv3/ICMP collector, and a metrics sink feeding
// PostgreSQL, the time-series store, and NATS.
package npm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/models"
)

// Scheduler drives poll cycles: every interval it claims a batch of due
// devices and polls them concurrently under a global semaphore.
type Scheduler struct {
	config    Config
	store     DeviceStore
	collector DeviceCollector
	sink      MetricsSink
	bus       *Bus
	logger    logger.Logger

	sem      chan struct{}
	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewScheduler builds a Scheduler. bus may be nil when the control plane
// is disabled.
func NewScheduler(cfg *Config, store DeviceStore, collector DeviceCollector, sink MetricsSink, bus *Bus, log logger.Logger) *Scheduler {
	return &Scheduler{
		config:    *cfg,
		store:     store,
		collector: collector,
		sink:      sink,
		bus:       bus,
		logger:    log,
		sem:       make(chan struct{}, cfg.MaxConcurrentPolls),
		inflight:  make(map[uuid.UUID]struct{}),
		done:      make(chan struct{}),
	}
}

// Start implements the lifecycle.Service interface. It blocks until ctx is
// canceled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	interval := time.Duration(s.config.PollInterval)

	s.logger.Info().
		Dur("interval", interval).
		Int("batch_size", s.config.BatchSize).
		Int("max_concurrent_polls", s.config.MaxConcurrentPolls).
		Msg("Starting poll scheduler")

	if s.bus != nil {
		s.wg.Add(2)

		go func() {
			defer s.wg.Done()

			if err := s.bus.ConsumePollRequests(runCtx, s.PollDevice); err != nil {
				s.logger.Error().Err(err).Msg("Poll request consumer failed to start")
			}
		}()

		go func() {
			defer s.wg.Done()

			if err := s.bus.ConsumeStatusEvents(runCtx); err != nil {
				s.logger.Error().Err(err).Msg("Status consumer failed to start")
			}
		}()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.RunCycle(runCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error during initial poll cycle")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case <-ticker.C:
			s.wg.Add(1)

			go func() {
				defer s.wg.Done()

				if err := s.RunCycle(runCtx); err != nil {
					s.logger.Error().Err(err).Msg("Error during poll cycle")
				}
			}()
		}
	}
}

// Stop implements the lifecycle.Service interface: it stops the cycle loop
// and waits for in-flight polls within the ctx deadline.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.done) })

	waitCh := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunCycle claims one batch of due devices and polls them, collecting
// per-device failures without failing the cycle.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	targets, err := s.store.ClaimBatch(ctx, s.config.BatchSize)
	if err != nil {
		return fmt.Errorf("claim poll batch: %w", err)
	}

	if len(targets) == 0 {
		s.logger.Debug().Msg("No devices due for polling")
		return nil
	}

	s.logger.Info().Int("devices", len(targets)).Msg("Polling devices")

	var wg sync.WaitGroup

	for i := range targets {
		target := targets[i]

		if !s.begin(target.ID) {
			continue
		}

		wg.Add(1)

		go func() {
			defer wg.Done()
			defer s.end(target.ID)

			select {
			case s.sem <- struct{}{}:
				defer func() { <-s.sem }()
			case <-ctx.Done():
				return
			}

			s.pollOne(ctx, target)
		}()
	}

	wg.Wait()

	return nil
}

// PollDevice runs an immediate poll of one device, outside the cadence but
// still under the concurrency gate. A device already being polled is
// skipped silently.
func (s *Scheduler) PollDevice(ctx context.Context, deviceID uuid.UUID) error {
	target, err := s.store.ClaimDevice(ctx, deviceID)
	if err != nil {
		return err
	}

	if !s.begin(target.ID) {
		s.logger.Debug().Str("device_id", deviceID.String()).Msg("Poll already in flight")
		return nil
	}
	defer s.end(target.ID)

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return ctx.Err()
	}

	s.pollOne(ctx, *target)

	return nil
}

func (s *Scheduler) pollOne(ctx context.Context, target models.PollTarget) {
	metrics, ifaces := s.collector.Collect(ctx, target)

	if err := s.sink.Store(ctx, target, metrics, ifaces); err != nil {
		s.logger.Error().Err(err).
			Str("device_id", target.ID.String()).
			Str("device", target.Name).
			Msg("Failed to store poll result")
	}
}

// begin marks a device as in flight; it reports false when a poll for the
// device is already running in this instance.
func (s *Scheduler) begin(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inflight[id]; ok {
		return false
	}

	s.inflight[id] = struct{}{}

	return true
}

func (s *Scheduler) end(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inflight, id)
}
