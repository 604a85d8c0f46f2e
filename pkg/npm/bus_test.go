package npm

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/models"
	"github.com/netnynja/netnynja/pkg/natsutil"
)

func runJetStreamServer(t *testing.T) (*server.Server, string) {
	t.Helper()

	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	}

	srv, err := server.NewServer(opts)
	require.NoError(t, err)

	go srv.Start()

	if !srv.ReadyForConnections(10 * time.Second) {
		t.Fatal("nats server did not become ready in time")
	}

	require.Eventually(t, func() bool {
		return srv.JetStreamEnabled()
	}, 5*time.Second, 100*time.Millisecond)

	t.Cleanup(srv.Shutdown)

	return srv, srv.ClientURL()
}

func testBus(t *testing.T) (*Bus, *nats.Conn, jetstream.JetStream) {
	t.Helper()

	_, url := runJetStreamServer(t)

	log := logger.NewTestLogger()

	nc, err := natsutil.Connect(&natsutil.Config{URL: url, Name: "npm-test"}, log)
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	js, err := natsutil.NewJetStream(nc, "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bus, err := NewBus(ctx, nc, js, log)
	require.NoError(t, err)

	return bus, nc, js
}

func fetchSubject(t *testing.T, js jetstream.JetStream, subject string, max int) [][]byte {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	consumer, err := js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	require.NoError(t, err)

	batch, err := consumer.Fetch(max, jetstream.FetchMaxWait(2*time.Second))
	require.NoError(t, err)

	var payloads [][]byte

	for msg := range batch.Messages() {
		payloads = append(payloads, msg.Data())
		require.NoError(t, msg.Ack())
	}

	return payloads
}

func TestNewBusCreatesStream(t *testing.T) {
	_, _, js := testBus(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := js.Stream(ctx, StreamName)
	require.NoError(t, err)

	info, err := stream.Info(ctx)
	require.NoError(t, err)

	assert.Equal(t, jetstream.LimitsPolicy, info.Config.Retention)
	assert.Contains(t, info.Config.Subjects, "npm.metrics.*")
	assert.Contains(t, info.Config.Subjects, "npm.poll.*")
	assert.Equal(t, int64(1_000_000), info.Config.MaxMsgs)
	assert.Equal(t, time.Hour, info.Config.MaxAge)
}

func TestPublishAndFetchDeviceMetrics(t *testing.T) {
	bus, _, js := testBus(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	metrics := models.DeviceMetrics{
		DeviceID:    uuid.New(),
		DeviceName:  "core-sw-01",
		Timestamp:   time.Now().UTC(),
		IsAvailable: true,
	}

	require.NoError(t, bus.PublishDeviceMetrics(ctx, metrics))

	payloads := fetchSubject(t, js, SubjectDeviceMetrics, 10)
	require.Len(t, payloads, 1)

	var got models.DeviceMetrics
	require.NoError(t, json.Unmarshal(payloads[0], &got))
	assert.Equal(t, metrics.DeviceID, got.DeviceID)
	assert.True(t, got.IsAvailable)
}

func TestPublishInterfaceMetricsSkipsEmptyBatch(t *testing.T) {
	bus, _, js := testBus(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, bus.PublishInterfaceMetrics(ctx, uuid.New(), nil))

	stream, err := js.Stream(ctx, StreamName)
	require.NoError(t, err)

	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.Zero(t, info.State.Msgs)
}

func TestRequestPollReachesConsumer(t *testing.T) {
	bus, _, _ := testBus(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	deviceID := uuid.New()
	require.NoError(t, bus.RequestPoll(ctx, deviceID))

	consumeCtx, stopConsume := context.WithCancel(context.Background())
	defer stopConsume()

	polled := make(chan uuid.UUID, 1)

	go func() {
		_ = bus.ConsumePollRequests(consumeCtx, func(_ context.Context, id uuid.UUID) error {
			polled <- id
			return nil
		})
	}()

	select {
	case got := <-polled:
		assert.Equal(t, deviceID, got)
	case <-time.After(10 * time.Second):
		t.Fatal("poll request was never consumed")
	}
}

func TestStatusDropRaisesCriticalAlert(t *testing.T) {
	bus, nc, _ := testBus(t)

	sub, err := nc.SubscribeSync(SubjectAlerts)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	deviceID := uuid.New()
	require.NoError(t, bus.PublishStatusEvent(ctx, StatusEvent{
		DeviceID:       deviceID,
		Status:         models.DeviceStatusDown,
		PreviousStatus: models.DeviceStatusUp,
		Timestamp:      time.Now().UTC(),
	}))

	consumeCtx, stopConsume := context.WithCancel(context.Background())
	defer stopConsume()

	go func() {
		_ = bus.ConsumeStatusEvents(consumeCtx)
	}()

	msg, err := sub.NextMsg(10 * time.Second)
	require.NoError(t, err)

	var alert Alert
	require.NoError(t, json.Unmarshal(msg.Data, &alert))

	assert.Equal(t, deviceID, alert.DeviceID)
	assert.Equal(t, "Device is no longer responding", alert.Message)
	assert.Equal(t, "critical", alert.Severity)
	assert.Equal(t, "npm", alert.Source)
	assert.Equal(t, "up", alert.Details["previous_status"])
	assert.Equal(t, "down", alert.Details["current_status"])
	assert.False(t, alert.Timestamp.IsZero())
}

func TestHandleStatusEventIgnoresNonDropTransitions(t *testing.T) {
	// No NATS connection needed: the alert path is never reached.
	bus := &Bus{logger: logger.NewTestLogger()}

	require.NoError(t, bus.handleStatusEvent(StatusEvent{
		Status:         models.DeviceStatusUp,
		PreviousStatus: models.DeviceStatusDown,
	}))
	require.NoError(t, bus.handleStatusEvent(StatusEvent{
		Status:         models.DeviceStatusDown,
		PreviousStatus: models.DeviceStatusUnknown,
	}))
	require.NoError(t, bus.handleStatusEvent(StatusEvent{
		Status:         models.DeviceStatusDown,
		PreviousStatus: models.DeviceStatusDown,
	}))
}

func TestSinkFanOutPublishesStatusOnlyOnTransition(t *testing.T) {
	bus, _, js := testBus(t)

	ctrl := gomock.NewController(t)
	store := NewMockDeviceStore(ctrl)

	store.EXPECT().InsertDeviceMetrics(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	store.EXPECT().PersistInterfaces(gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)
	store.EXPECT().UpdateDeviceStatus(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	sink := NewSink(store, nil, bus, logger.NewTestLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	metrics := models.DeviceMetrics{
		DeviceID:  uuid.New(),
		Timestamp: time.Now().UTC(),
		// Unavailable: derived status is down.
	}

	wasUp := testTarget("cisco", nil)
	wasUp.ID = metrics.DeviceID
	wasUp.Status = models.DeviceStatusUp
	require.NoError(t, sink.Store(ctx, wasUp, metrics, nil))

	alreadyDown := wasUp
	alreadyDown.Status = models.DeviceStatusDown
	require.NoError(t, sink.Store(ctx, alreadyDown, metrics, nil))

	payloads := fetchSubject(t, js, SubjectDeviceStatus, 10)
	require.Len(t, payloads, 1)

	var ev StatusEvent
	require.NoError(t, json.Unmarshal(payloads[0], &ev))
	assert.Equal(t, models.DeviceStatusUp, ev.PreviousStatus)
	assert.Equal(t, models.DeviceStatusDown, ev.Status)
	assert.Equal(t, metrics.DeviceID, ev.DeviceID)
}
