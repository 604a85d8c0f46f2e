package stig

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/models"
	"github.com/netnynja/netnynja/pkg/natsutil"
)

func runJetStreamServer(t *testing.T) string {
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

	return srv.ClientURL()
}

func testJetStream(t *testing.T) jetstream.JetStream {
	t.Helper()

	url := runJetStreamServer(t)

	nc, err := natsutil.Connect(&natsutil.Config{URL: url, Name: "stig-test"}, logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	js, err := natsutil.NewJetStream(nc, "")
	require.NoError(t, err)

	return js
}

func newTestWorker(t *testing.T, js jetstream.JetStream, store JobStore, rules RuleSource) *Worker {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	w, err := NewWorker(ctx, js, store, rules, logger.NewTestLogger())
	require.NoError(t, err)

	return w
}

// startWorker runs the consume loop for the rest of the test and verifies
// a clean shutdown during cleanup.
func startWorker(t *testing.T, w *Worker) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)

	go func() {
		errCh <- w.Start(ctx)
	}()

	t.Cleanup(func() {
		defer cancel()

		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()

		assert.NoError(t, w.Stop(stopCtx))

		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("worker did not shut down in time")
		}
	})
}

func queueAudit(t *testing.T, w *Worker, jobID uuid.UUID) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, w.RequestAudit(ctx, jobID))
}

func fetchCompletion(t *testing.T, js jetstream.JetStream, jobID uuid.UUID) auditCompletion {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	consumer, err := js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		FilterSubject: SubjectResultsPrefix + jobID.String(),
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	require.NoError(t, err)

	batch, err := consumer.Fetch(1, jetstream.FetchMaxWait(10*time.Second))
	require.NoError(t, err)

	for msg := range batch.Messages() {
		var completion auditCompletion

		require.NoError(t, json.Unmarshal(msg.Data(), &completion))
		require.NoError(t, msg.Ack())

		return completion
	}

	t.Fatal("no completion event was published")

	return auditCompletion{}
}

func TestNewWorkerCreatesStream(t *testing.T) {
	js := testJetStream(t)

	ctrl := gomock.NewController(t)
	newTestWorker(t, js, NewMockJobStore(ctrl), NewMockRuleSource(ctrl))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := js.Stream(ctx, StreamName)
	require.NoError(t, err)

	info, err := stream.Info(ctx)
	require.NoError(t, err)

	assert.Contains(t, info.Config.Subjects, SubjectAudits)
	assert.Contains(t, info.Config.Subjects, "stig.results.*")
	assert.Equal(t, jetstream.LimitsPolicy, info.Config.Retention)
	assert.Equal(t, int64(100_000), info.Config.MaxMsgs)
	assert.Equal(t, 24*time.Hour, info.Config.MaxAge)
}

func TestWorkerProcessesAuditJob(t *testing.T) {
	js := testJetStream(t)

	ctrl := gomock.NewController(t)
	store := NewMockJobStore(ctrl)
	source := NewMockRuleSource(ctrl)

	jobID := uuid.New()
	targetID := uuid.New()
	definitionID := uuid.New()

	job := models.AuditJob{
		ID:           jobID,
		TargetID:     targetID,
		DefinitionID: definitionID,
		Status:       models.AuditPending,
	}
	target := models.AuditTarget{
		ID:         targetID,
		Name:       "srx-fw01",
		Platform:   models.PlatformJuniperSRX,
		ConfigText: srxSampleConfig,
	}
	definition := models.STIGDefinition{
		ID:          definitionID,
		BenchmarkID: "Juniper_SRX_SG_NDM_STIG",
	}
	rules := []models.STIGRule{
		{
			VulnID:   "V-66031",
			RuleID:   "SV-80521r1_rule",
			Title:    "The Juniper SRX must deny SSH root login",
			Severity: models.SeverityHigh,
		},
		{
			VulnID:   "V-66041",
			RuleID:   "SV-80531r1_rule",
			Title:    "The device must synchronize with authoritative NTP sources",
			Severity: models.SeverityMedium,
		},
	}

	inserted := make(chan []models.AuditResult, 1)

	gomock.InOrder(
		store.EXPECT().Job(gomock.Any(), jobID).Return(job, nil),
		store.EXPECT().SetJobStatus(gomock.Any(), jobID, models.AuditRunning, "").Return(nil),
		store.EXPECT().Target(gomock.Any(), targetID).Return(target, nil),
		store.EXPECT().Definition(gomock.Any(), definitionID).Return(definition, nil),
		source.EXPECT().Rules("Juniper_SRX_SG_NDM_STIG").Return(rules, nil),
		store.EXPECT().InsertResults(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, results []models.AuditResult) error {
				inserted <- results
				return nil
			}),
		store.EXPECT().StampTargetAudit(gomock.Any(), targetID).Return(nil),
		store.EXPECT().SetJobStatus(gomock.Any(), jobID, models.AuditCompleted, "").Return(nil),
	)

	w := newTestWorker(t, js, store, source)
	queueAudit(t, w, jobID)
	startWorker(t, w)

	var results []models.AuditResult

	select {
	case results = <-inserted:
	case <-time.After(15 * time.Second):
		t.Fatal("audit job was never processed")
	}

	require.Len(t, results, 2)

	for _, result := range results {
		assert.Equal(t, jobID, result.JobID)
		assert.Equal(t, models.CheckPass, result.Status)
		assert.NotEmpty(t, result.FindingDetails)
	}

	assert.Equal(t, "V-66031", results[0].VulnID)
	assert.Equal(t, "SV-80521r1_rule", results[0].RuleID)
	assert.Equal(t, "V-66041", results[1].VulnID)

	completion := fetchCompletion(t, js, jobID)
	assert.Equal(t, jobID, completion.JobID)
	assert.Equal(t, string(models.AuditCompleted), completion.Status)
}

func TestWorkerMarksUnrunnableJobsFailed(t *testing.T) {
	js := testJetStream(t)

	ctrl := gomock.NewController(t)
	store := NewMockJobStore(ctrl)
	source := NewMockRuleSource(ctrl)

	type jobFailure struct {
		id     uuid.UUID
		reason string
	}

	failures := make(chan jobFailure, 3)

	record := func(_ context.Context, id uuid.UUID, _ models.AuditStatus, message string) error {
		failures <- jobFailure{id: id, reason: message}
		return nil
	}

	// Target row is gone.
	noTarget := models.AuditJob{ID: uuid.New(), TargetID: uuid.New(), DefinitionID: uuid.New()}
	store.EXPECT().Job(gomock.Any(), noTarget.ID).Return(noTarget, nil)
	store.EXPECT().SetJobStatus(gomock.Any(), noTarget.ID, models.AuditRunning, "").Return(nil)
	store.EXPECT().Target(gomock.Any(), noTarget.TargetID).Return(models.AuditTarget{}, ErrTargetNotFound)
	store.EXPECT().Definition(gomock.Any(), noTarget.DefinitionID).Return(models.STIGDefinition{}, nil)
	store.EXPECT().SetJobStatus(gomock.Any(), noTarget.ID, models.AuditFailed, "Target or definition not found").DoAndReturn(record)

	// Benchmark definition row is gone.
	noDefinition := models.AuditJob{ID: uuid.New(), TargetID: uuid.New(), DefinitionID: uuid.New()}
	store.EXPECT().Job(gomock.Any(), noDefinition.ID).Return(noDefinition, nil)
	store.EXPECT().SetJobStatus(gomock.Any(), noDefinition.ID, models.AuditRunning, "").Return(nil)
	store.EXPECT().Target(gomock.Any(), noDefinition.TargetID).
		Return(models.AuditTarget{ID: noDefinition.TargetID, ConfigText: "set system host-name fw"}, nil)
	store.EXPECT().Definition(gomock.Any(), noDefinition.DefinitionID).Return(models.STIGDefinition{}, ErrDefinitionNotFound)
	store.EXPECT().SetJobStatus(gomock.Any(), noDefinition.ID, models.AuditFailed, "Target or definition not found").DoAndReturn(record)

	// Target exists but nothing has captured its configuration yet.
	noConfig := models.AuditJob{ID: uuid.New(), TargetID: uuid.New(), DefinitionID: uuid.New()}
	store.EXPECT().Job(gomock.Any(), noConfig.ID).Return(noConfig, nil)
	store.EXPECT().SetJobStatus(gomock.Any(), noConfig.ID, models.AuditRunning, "").Return(nil)
	store.EXPECT().Target(gomock.Any(), noConfig.TargetID).
		Return(models.AuditTarget{ID: noConfig.TargetID}, nil)
	store.EXPECT().Definition(gomock.Any(), noConfig.DefinitionID).
		Return(models.STIGDefinition{ID: noConfig.DefinitionID, BenchmarkID: "Juniper_SRX_SG_NDM_STIG"}, nil)
	store.EXPECT().SetJobStatus(gomock.Any(), noConfig.ID, models.AuditFailed, "Target has no stored configuration").DoAndReturn(record)

	w := newTestWorker(t, js, store, source)
	queueAudit(t, w, noTarget.ID)
	queueAudit(t, w, noDefinition.ID)
	queueAudit(t, w, noConfig.ID)
	startWorker(t, w)

	got := make(map[uuid.UUID]string, 3)

	for i := 0; i < 3; i++ {
		select {
		case f := <-failures:
			got[f.id] = f.reason
		case <-time.After(15 * time.Second):
			t.Fatalf("only %d of 3 unrunnable jobs were marked failed", len(got))
		}
	}

	assert.Equal(t, "Target or definition not found", got[noTarget.ID])
	assert.Equal(t, "Target or definition not found", got[noDefinition.ID])
	assert.Equal(t, "Target has no stored configuration", got[noConfig.ID])
}

func TestWorkerRetriesAfterTransientStoreError(t *testing.T) {
	js := testJetStream(t)

	ctrl := gomock.NewController(t)
	store := NewMockJobStore(ctrl)
	source := NewMockRuleSource(ctrl)

	jobID := uuid.New()
	targetID := uuid.New()
	definitionID := uuid.New()

	job := models.AuditJob{ID: jobID, TargetID: targetID, DefinitionID: definitionID}
	target := models.AuditTarget{ID: targetID, ConfigText: "set system services ssh root-login deny"}
	definition := models.STIGDefinition{ID: definitionID, BenchmarkID: "Juniper_SRX_SG_NDM_STIG"}

	// The first delivery dies on the job lookup and naks. The redelivery
	// runs the audit to completion.
	gomock.InOrder(
		store.EXPECT().Job(gomock.Any(), jobID).Return(models.AuditJob{}, errors.New("connection reset by peer")),
		store.EXPECT().SetJobStatus(gomock.Any(), jobID, models.AuditFailed, "connection reset by peer").Return(nil),
		store.EXPECT().Job(gomock.Any(), jobID).Return(job, nil),
		store.EXPECT().SetJobStatus(gomock.Any(), jobID, models.AuditRunning, "").Return(nil),
		store.EXPECT().Target(gomock.Any(), targetID).Return(target, nil),
		store.EXPECT().Definition(gomock.Any(), definitionID).Return(definition, nil),
		source.EXPECT().Rules("Juniper_SRX_SG_NDM_STIG").Return(nil, nil),
		store.EXPECT().InsertResults(gomock.Any(), gomock.Len(0)).Return(nil),
		store.EXPECT().StampTargetAudit(gomock.Any(), targetID).Return(nil),
		store.EXPECT().SetJobStatus(gomock.Any(), jobID, models.AuditCompleted, "").Return(nil),
	)

	w := newTestWorker(t, js, store, source)
	queueAudit(t, w, jobID)
	startWorker(t, w)

	completion := fetchCompletion(t, js, jobID)
	assert.Equal(t, jobID, completion.JobID)
	assert.Equal(t, string(models.AuditCompleted), completion.Status)
}

func TestWorkerDiscardsRequestsItCannotParse(t *testing.T) {
	js := testJetStream(t)

	ctrl := gomock.NewController(t)
	store := NewMockJobStore(ctrl)
	source := NewMockRuleSource(ctrl)

	w := newTestWorker(t, js, store, source)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Neither of these can ever resolve to a job: broken JSON and a nil
	// job id. Both must be acked without touching the store.
	_, err := js.Publish(ctx, SubjectAuditPrefix+"garbage", []byte("{not json"))
	require.NoError(t, err)

	nilReq, err := json.Marshal(AuditRequest{})
	require.NoError(t, err)

	_, err = js.Publish(ctx, SubjectAuditPrefix+uuid.Nil.String(), nilReq)
	require.NoError(t, err)

	// A request for a deleted job rides behind them; seeing it handled
	// means the queue kept moving past the junk.
	goneID := uuid.New()
	handled := make(chan struct{})

	store.EXPECT().Job(gomock.Any(), goneID).DoAndReturn(
		func(context.Context, uuid.UUID) (models.AuditJob, error) {
			close(handled)
			return models.AuditJob{}, ErrJobNotFound
		})

	queueAudit(t, w, goneID)
	startWorker(t, w)

	select {
	case <-handled:
	case <-time.After(15 * time.Second):
		t.Fatal("worker stalled on malformed requests")
	}
}

func TestWorkerStopUnblocksStart(t *testing.T) {
	js := testJetStream(t)

	ctrl := gomock.NewController(t)

	w := newTestWorker(t, js, NewMockJobStore(ctrl), NewMockRuleSource(ctrl))

	errCh := make(chan error, 1)

	go func() {
		errCh <- w.Start(context.Background())
	}()

	// Give the consume loop a moment to come up before tearing it down.
	time.Sleep(100 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, w.Stop(stopCtx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}

	// Stop is idempotent.
	require.NoError(t, w.Stop(stopCtx))
}
