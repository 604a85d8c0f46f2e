package npm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/models"
)

func schedulerConfig() *Config {
	return &Config{
		PollInterval:       logger.Duration(time.Minute),
		BatchSize:          100,
		MaxConcurrentPolls: 4,
	}
}

func makeTargets(n int) []models.PollTarget {
	targets := make([]models.PollTarget, n)

	for i := range targets {
		targets[i] = models.PollTarget{
			Device: models.Device{ID: uuid.New(), Name: "device", IPAddress: "10.0.0.1", IsActive: true},
		}
	}

	return targets
}

func TestRunCyclePollsEveryClaimedDevice(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockDeviceStore(ctrl)
	collector := NewMockDeviceCollector(ctrl)
	sink := NewMockMetricsSink(ctrl)

	targets := makeTargets(3)
	store.EXPECT().ClaimBatch(gomock.Any(), 100).Return(targets, nil)

	collector.EXPECT().Collect(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, target models.PollTarget) (models.DeviceMetrics, []models.InterfaceMetrics) {
			return models.DeviceMetrics{DeviceID: target.ID}, nil
		}).Times(3)

	var mu sync.Mutex

	polled := make(map[uuid.UUID]bool)

	sink.EXPECT().Store(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ models.PollTarget, m models.DeviceMetrics, _ []models.InterfaceMetrics) error {
			mu.Lock()
			polled[m.DeviceID] = true
			mu.Unlock()

			return nil
		}).Times(3)

	s := NewScheduler(schedulerConfig(), store, collector, sink, nil, logger.NewTestLogger())
	require.NoError(t, s.RunCycle(context.Background()))

	mu.Lock()
	defer mu.Unlock()

	for _, target := range targets {
		assert.True(t, polled[target.ID], "device %s was not polled", target.ID)
	}
}

func TestRunCycleHonorsConcurrencyLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockDeviceStore(ctrl)
	collector := NewMockDeviceCollector(ctrl)
	sink := NewMockMetricsSink(ctrl)

	cfg := schedulerConfig()
	cfg.MaxConcurrentPolls = 2

	store.EXPECT().ClaimBatch(gomock.Any(), 100).Return(makeTargets(6), nil)

	var mu sync.Mutex

	current, peak := 0, 0

	collector.EXPECT().Collect(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, target models.PollTarget) (models.DeviceMetrics, []models.InterfaceMetrics) {
			mu.Lock()
			current++
			if current > peak {
				peak = current
			}
			mu.Unlock()

			time.Sleep(20 * time.Millisecond)

			mu.Lock()
			current--
			mu.Unlock()

			return models.DeviceMetrics{DeviceID: target.ID}, nil
		}).Times(6)

	sink.EXPECT().Store(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(6)

	s := NewScheduler(cfg, store, collector, sink, nil, logger.NewTestLogger())
	require.NoError(t, s.RunCycle(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, 2)
}

func TestRunCycleSkipsDevicesAlreadyInFlight(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockDeviceStore(ctrl)
	collector := NewMockDeviceCollector(ctrl)
	sink := NewMockMetricsSink(ctrl)

	targets := makeTargets(2)

	store.EXPECT().ClaimBatch(gomock.Any(), 100).Return(targets, nil)

	// Only the second device gets collected: the first is mid-poll already.
	collector.EXPECT().Collect(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, target models.PollTarget) (models.DeviceMetrics, []models.InterfaceMetrics) {
			assert.Equal(t, targets[1].ID, target.ID)
			return models.DeviceMetrics{DeviceID: target.ID}, nil
		})
	sink.EXPECT().Store(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	s := NewScheduler(schedulerConfig(), store, collector, sink, nil, logger.NewTestLogger())
	require.True(t, s.begin(targets[0].ID))

	require.NoError(t, s.RunCycle(context.Background()))
}

func TestRunCycleSurvivesStoreFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockDeviceStore(ctrl)
	collector := NewMockDeviceCollector(ctrl)
	sink := NewMockMetricsSink(ctrl)

	store.EXPECT().ClaimBatch(gomock.Any(), 100).Return(makeTargets(2), nil)
	collector.EXPECT().Collect(gomock.Any(), gomock.Any()).
		Return(models.DeviceMetrics{}, nil).Times(2)
	sink.EXPECT().Store(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(assert.AnError).Times(2)

	s := NewScheduler(schedulerConfig(), store, collector, sink, nil, logger.NewTestLogger())
	require.NoError(t, s.RunCycle(context.Background()))
}

func TestRunCycleReturnsClaimError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockDeviceStore(ctrl)

	store.EXPECT().ClaimBatch(gomock.Any(), 100).Return(nil, assert.AnError)

	s := NewScheduler(schedulerConfig(), store, NewMockDeviceCollector(ctrl), NewMockMetricsSink(ctrl), nil, logger.NewTestLogger())
	require.ErrorIs(t, s.RunCycle(context.Background()), assert.AnError)
}

func TestPollDeviceRunsImmediatePoll(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockDeviceStore(ctrl)
	collector := NewMockDeviceCollector(ctrl)
	sink := NewMockMetricsSink(ctrl)

	target := testTarget("cisco", nil)

	store.EXPECT().ClaimDevice(gomock.Any(), target.ID).Return(&target, nil)
	collector.EXPECT().Collect(gomock.Any(), gomock.Any()).
		Return(models.DeviceMetrics{DeviceID: target.ID}, nil)
	sink.EXPECT().Store(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	s := NewScheduler(schedulerConfig(), store, collector, sink, nil, logger.NewTestLogger())
	require.NoError(t, s.PollDevice(context.Background(), target.ID))
}

func TestPollDeviceSkipsInflightDevice(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockDeviceStore(ctrl)

	target := testTarget("cisco", nil)
	store.EXPECT().ClaimDevice(gomock.Any(), target.ID).Return(&target, nil)

	s := NewScheduler(schedulerConfig(), store, NewMockDeviceCollector(ctrl), NewMockMetricsSink(ctrl), nil, logger.NewTestLogger())
	require.True(t, s.begin(target.ID))

	require.NoError(t, s.PollDevice(context.Background(), target.ID))
}

func TestPollDevicePropagatesClaimError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockDeviceStore(ctrl)

	deviceID := uuid.New()
	store.EXPECT().ClaimDevice(gomock.Any(), deviceID).Return(nil, ErrDeviceNotFound)

	s := NewScheduler(schedulerConfig(), store, NewMockDeviceCollector(ctrl), NewMockMetricsSink(ctrl), nil, logger.NewTestLogger())
	require.ErrorIs(t, s.PollDevice(context.Background(), deviceID), ErrDeviceNotFound)
}

func TestStartRunsCyclesUntilStopped(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockDeviceStore(ctrl)

	cfg := schedulerConfig()
	cfg.PollInterval = logger.Duration(20 * time.Millisecond)

	claimed := make(chan struct{}, 1)

	store.EXPECT().ClaimBatch(gomock.Any(), 100).
		DoAndReturn(func(context.Context, int) ([]models.PollTarget, error) {
			select {
			case claimed <- struct{}{}:
			default:
			}

			return nil, nil
		}).MinTimes(1)

	s := NewScheduler(cfg, store, NewMockDeviceCollector(ctrl), NewMockMetricsSink(ctrl), nil, logger.NewTestLogger())

	startErr := make(chan error, 1)

	go func() {
		startErr <- s.Start(context.Background())
	}()

	select {
	case <-claimed:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler never ran a poll cycle")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))

	select {
	case err := <-startErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}
