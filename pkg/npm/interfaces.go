package npm

//go:generate mockgen -destination=mock_npm.go -package=npm github.com/netnynja/netnynja/pkg/npm DeviceStore,DeviceCollector,MetricsSink

import (
	"context"

	"github.com/google/uuid"

	"github.com/netnynja/netnynja/pkg/models"
)

// DeviceStore claims devices for polling and persists poll results.
type DeviceStore interface {
	ClaimBatch(ctx context.Context, limit int) ([]models.PollTarget, error)
	ClaimDevice(ctx context.Context, deviceID uuid.UUID) (*models.PollTarget, error)
	InsertDeviceMetrics(ctx context.Context, m models.DeviceMetrics) error
	PersistInterfaces(ctx context.Context, ifaces []models.InterfaceMetrics) ([]uuid.UUID, error)
	UpdateDeviceStatus(ctx context.Context, u StatusUpdate) error
}

// DeviceCollector gathers one point-in-time reading for a device.
type DeviceCollector interface {
	Collect(ctx context.Context, target models.PollTarget) (models.DeviceMetrics, []models.InterfaceMetrics)
}

// MetricsSink persists a completed poll result and fans it out to the
// time-series store and the message bus.
type MetricsSink interface {
	Store(ctx context.Context, target models.PollTarget, metrics models.DeviceMetrics, ifaces []models.InterfaceMetrics) error
}
