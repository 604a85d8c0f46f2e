package npm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/models"
)

const (
	tsdbImportPath     = "/api/v1/import/prometheus"
	tsdbRequestTimeout = 30 * time.Second
)

// TSDBClient pushes metrics to a VictoriaMetrics-compatible store in
// Prometheus exposition format. Push failures are logged and never fail
// the poll that produced them.
type TSDBClient struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

// NewTSDBClient returns a client for the given base URL.
func NewTSDBClient(baseURL string, log logger.Logger) *TSDBClient {
	return &TSDBClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: tsdbRequestTimeout},
		logger:  log,
	}
}

// PushDeviceMetrics exports one device reading.
func (c *TSDBClient) PushDeviceMetrics(ctx context.Context, m models.DeviceMetrics) {
	labels := fmt.Sprintf(`device_id=%q,device_name=%q`, m.DeviceID.String(), m.DeviceName)
	ts := m.Timestamp.UnixMilli()

	lines := []string{
		metricLine("npm_device_cpu_utilization", labels, floatOrZero(m.CPUUtilization), ts),
		metricLine("npm_device_memory_utilization", labels, floatOrZero(m.MemoryUtilization), ts),
		metricLine("npm_device_uptime_seconds", labels, intOrZero(m.UptimeSeconds), ts),
		metricLine("npm_device_interfaces_total", labels, float64(m.InterfaceCount), ts),
		metricLine("npm_device_interfaces_up", labels, float64(m.InterfaceUpCount), ts),
		metricLine("npm_device_interfaces_down", labels, float64(m.InterfaceDownCount), ts),
	}

	if err := c.push(ctx, lines); err != nil {
		c.logger.Warn().Err(err).
			Str("device_id", m.DeviceID.String()).
			Msg("Device metrics push failed")
	}
}

// PushInterfaceMetrics exports one interface reading. interfaceID is the
// dimension row ID assigned by the store.
func (c *TSDBClient) PushInterfaceMetrics(ctx context.Context, interfaceID uuid.UUID, m models.InterfaceMetrics) {
	labels := fmt.Sprintf(`interface_id=%q,device_id=%q,interface_name=%q`,
		interfaceID.String(), m.DeviceID.String(), m.InterfaceName)
	ts := m.Timestamp.UnixMilli()

	lines := []string{
		metricLine("npm_interface_in_octets", labels, float64(m.InOctets), ts),
		metricLine("npm_interface_out_octets", labels, float64(m.OutOctets), ts),
		metricLine("npm_interface_in_errors", labels, float64(m.InErrors), ts),
		metricLine("npm_interface_out_errors", labels, float64(m.OutErrors), ts),
		metricLine("npm_interface_in_utilization", labels, floatOrZero(m.InUtilization), ts),
		metricLine("npm_interface_out_utilization", labels, floatOrZero(m.OutUtilization), ts),
	}

	if err := c.push(ctx, lines); err != nil {
		c.logger.Warn().Err(err).
			Str("interface_id", interfaceID.String()).
			Msg("Interface metrics push failed")
	}
}

func (c *TSDBClient) push(ctx context.Context, lines []string) error {
	body := strings.NewReader(strings.Join(lines, "\n"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tsdbImportPath, body)
	if err != nil {
		return fmt.Errorf("build import request: %w", err)
	}

	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("import request: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("import request: unexpected status %s", resp.Status)
	}

	return nil
}

func metricLine(name, labels string, value float64, ts int64) string {
	return fmt.Sprintf("%s{%s} %s %d", name, labels, strconv.FormatFloat(value, 'g', -1, 64), ts)
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}

	return *v
}

func intOrZero(v *int64) float64 {
	if v == nil {
		return 0
	}

	return float64(*v)
}
