package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sandeepkv93/media-request-tracker/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type AppMetrics struct {
	authLoginCounter        metric.Int64Counter
	authLogoutCounter       metric.Int64Counter
	csrfValidationCounter   metric.Int64Counter
	sessionValidation       metric.Int64Counter
	mediaRequestCounter     metric.Int64Counter
	adminUserCounter        metric.Int64Counter
	featureCounter          metric.Int64Counter
	repositoryCounter       metric.Int64Counter
	rateLimitCounter        metric.Int64Counter
	rateLimitRetryAfter     metric.Float64Histogram
	notificationSendCounter metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)

	m, err := newAppMetrics(mp.Meter(cfg.OTELServiceName))
	if err != nil {
		return nil, err
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func newAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	var (
		m   AppMetrics
		err error
	)
	counters := []struct {
		name string
		dst  *metric.Int64Counter
	}{
		{"auth.login.attempts", &m.authLoginCounter},
		{"auth.logout.attempts", &m.authLogoutCounter},
		{"csrf.validation", &m.csrfValidationCounter},
		{"session.validation", &m.sessionValidation},
		{"media_request.mutations", &m.mediaRequestCounter},
		{"admin.user.mutations", &m.adminUserCounter},
		{"feature.mutations", &m.featureCounter},
		{"repository.operations", &m.repositoryCounter},
		{"http.rate_limit.decisions", &m.rateLimitCounter},
		{"notification.send", &m.notificationSendCounter},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name)
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", c.name, err)
		}
	}
	m.rateLimitRetryAfter, err = meter.Float64Histogram("http.rate_limit.retry_after", metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create histogram http.rate_limit.retry_after: %w", err)
	}
	return &m, nil
}

func current() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordAuthLogin(ctx context.Context, status string) {
	m := current()
	if m == nil {
		return
	}
	m.authLoginCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordAuthLogout(ctx context.Context, status string) {
	m := current()
	if m == nil {
		return
	}
	m.authLogoutCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordCSRFValidation(ctx context.Context, outcome, pathGroup string) {
	m := current()
	if m == nil {
		return
	}
	m.csrfValidationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("path_group", pathGroup),
	))
}

func RecordSessionValidation(ctx context.Context, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.sessionValidation.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordMediaRequestMutation(ctx context.Context, action, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.mediaRequestCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}

func RecordAdminUserMutation(ctx context.Context, action string) {
	m := current()
	if m == nil {
		return
	}
	m.adminUserCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}

func RecordFeatureMutation(ctx context.Context, action string) {
	m := current()
	if m == nil {
		return
	}
	m.featureCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}

func RecordRepositoryOperation(ctx context.Context, repository, operation, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.repositoryCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("repository", repository),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordRateLimitDecision(ctx context.Context, scope, outcome, mode, keyType string) {
	m := current()
	if m == nil {
		return
	}
	m.rateLimitCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("outcome", outcome),
		attribute.String("mode", mode),
		attribute.String("key_type", keyType),
	))
}

func RecordRateLimitRetryAfter(ctx context.Context, scope, reason string, retryAfter time.Duration) {
	m := current()
	if m == nil {
		return
	}
	m.rateLimitRetryAfter.Record(ctx, retryAfter.Seconds(), metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("reason", reason),
	))
}

func RecordNotificationSend(ctx context.Context, kind, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.notificationSendCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}
