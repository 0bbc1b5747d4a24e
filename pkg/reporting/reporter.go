// Package reporting is the sink for failures that are swallowed rather than
// returned: compensation errors, orphaned payment intents, webhook handler
// errors.
package reporting

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const (
	EventCompensationFailed = "checkout.compensation_failed"
	EventOrphanIntent       = "payment.orphan_intent"
	EventOrphanCancelFailed = "payment.orphan_cancel_failed"
	EventWebhookFailed      = "webhook.handler_failed"
	EventPanicRecovered     = "http.panic_recovered"
)

// Reporter records a failure that must be visible to operators but never
// affects the caller.
type Reporter interface {
	Report(ctx context.Context, event string, err error, fields map[string]any)
}

type logReporter struct {
	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics
}

// New returns a Reporter that writes structured error logs and counts each event.
func New(logg *logger.Logger, m *metrics.CheckoutMetrics) Reporter {
	if logg == nil {
		logg = logger.Nop()
	}
	return &logReporter{logg: logg, metrics: m}
}

func (r *logReporter) Report(ctx context.Context, event string, err error, fields map[string]any) {
	if ctx == nil {
		ctx = context.Background()
	}
	merged := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["report_event"] = event
	r.logg.Error(r.logg.WithFields(ctx, merged), "failure reported", err)
	r.metrics.IncReported(event)
}

// Nop discards reports.
type Nop struct{}

func (Nop) Report(context.Context, string, error, map[string]any) {}
