package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

func TestReportLogsAndCounts(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	reg := prometheus.NewRegistry()
	reporter := New(logg, metrics.NewCheckoutMetrics(reg))

	reporter.Report(context.Background(), EventOrphanIntent, errors.New("no order"), map[string]any{"payment_intent_id": "pi_1"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, EventOrphanIntent, entry["report_event"])
	assert.Equal(t, "pi_1", entry["payment_intent_id"])
	assert.Equal(t, "no order", entry["error"])

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 1)
	assert.Equal(t, "reported_failures_total", mfs[0].GetName())
	assert.Equal(t, float64(1), mfs[0].GetMetric()[0].GetCounter().GetValue())
}

func TestNopReporter(t *testing.T) {
	Nop{}.Report(context.Background(), EventWebhookFailed, errors.New("x"), nil)
}
