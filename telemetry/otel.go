package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Config holds OTEL setup parameters.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTELEndpoint   string
	Insecure       bool
}

// Global instruments, initialized by InitOTEL.
var (
	Tracer trace.Tracer
	Meter  metric.Meter

	// PrometheusRegistry serves /metrics in daemon mode.
	PrometheusRegistry *promclient.Registry

	// Counters
	FindingsTotal          metric.Int64Counter
	RecommendationsCreated metric.Int64Counter
	ActionsTotal           metric.Int64Counter
	RollbacksTotal         metric.Int64Counter
	BudgetAlertsTotal      metric.Int64Counter
	AnomaliesDetected      metric.Int64Counter
	RuleFailuresTotal      metric.Int64Counter

	// Histograms
	ScanDuration  metric.Float64Histogram
	ApplyDuration metric.Float64Histogram

	// Gauges
	PendingRecommendations metric.Int64ObservableGauge
)

// InitOTEL sets up tracing and metrics, returning a shutdown function.
func InitOTEL(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating otel resource: %w", err)
	}

	traceShutdown, err := setupTraceProvider(ctx, cfg, res)
	if err != nil {
		return nil, fmt.Errorf("setting up trace provider: %w", err)
	}

	metricShutdown, err := setupMetricProvider(ctx, cfg, res)
	if err != nil {
		return nil, fmt.Errorf("setting up metric provider: %w", err)
	}

	Tracer = otel.Tracer("github.com/frugalops/frugal")
	Meter = otel.Meter("github.com/frugalops/frugal")

	if err := initInstruments(); err != nil {
		return nil, fmt.Errorf("creating instruments: %w", err)
	}

	return combinedShutdown(traceShutdown, metricShutdown), nil
}

func setupTraceProvider(ctx context.Context, cfg Config, res *resource.Resource) (func(context.Context) error, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.OTELEndpoint),
	}
	if cfg.Insecure {
		opts = append(opts,
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

func setupMetricProvider(ctx context.Context, cfg Config, res *resource.Resource) (func(context.Context) error, error) {
	registry := promclient.NewRegistry()
	PrometheusRegistry = registry

	promExporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.OTELEndpoint),
	}
	if cfg.Insecure {
		opts = append(opts,
			otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	}

	otlpExporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating otlp metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(otlpExporter,
			sdkmetric.WithInterval(10*time.Second))),
	)
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}

func initInstruments() error {
	var err error

	FindingsTotal, err = Meter.Int64Counter("frugal.findings.total",
		metric.WithDescription("Waste findings produced by detection rules"))
	if err != nil {
		return err
	}

	RecommendationsCreated, err = Meter.Int64Counter("frugal.recommendations.created.total",
		metric.WithDescription("New recommendations created after dedup"))
	if err != nil {
		return err
	}

	ActionsTotal, err = Meter.Int64Counter("frugal.actions.total",
		metric.WithDescription("Remediation actions by result"))
	if err != nil {
		return err
	}

	RollbacksTotal, err = Meter.Int64Counter("frugal.rollbacks.total",
		metric.WithDescription("Rollback attempts by result"))
	if err != nil {
		return err
	}

	BudgetAlertsTotal, err = Meter.Int64Counter("frugal.budget.alerts.total",
		metric.WithDescription("Budget threshold alerts fired"))
	if err != nil {
		return err
	}

	AnomaliesDetected, err = Meter.Int64Counter("frugal.anomalies.detected.total",
		metric.WithDescription("Spend anomalies detected"))
	if err != nil {
		return err
	}

	RuleFailuresTotal, err = Meter.Int64Counter("frugal.rule.failures.total",
		metric.WithDescription("Detection rule failures during scans"))
	if err != nil {
		return err
	}

	ScanDuration, err = Meter.Float64Histogram("frugal.scan.duration.seconds",
		metric.WithDescription("Workspace scan duration"),
		metric.WithUnit("s"))
	if err != nil {
		return err
	}

	ApplyDuration, err = Meter.Float64Histogram("frugal.apply.duration.seconds",
		metric.WithDescription("Recommendation apply duration"),
		metric.WithUnit("s"))
	if err != nil {
		return err
	}

	PendingRecommendations, err = Meter.Int64ObservableGauge("frugal.recommendations.pending",
		metric.WithDescription("Pending recommendations across workspaces"))
	if err != nil {
		return err
	}
	_, err = Meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		if fn := currentPendingObserver(); fn != nil {
			o.ObserveInt64(PendingRecommendations, fn())
		}
		return nil
	}, PendingRecommendations)
	if err != nil {
		return err
	}

	return nil
}

var (
	pendingMu       sync.Mutex
	pendingObserver func() int64
)

// SetPendingObserver installs the source the pending-recommendations
// gauge reads on each metric collection. Safe to call before or after
// InitOTEL.
func SetPendingObserver(fn func() int64) {
	pendingMu.Lock()
	defer pendingMu.Unlock()
	pendingObserver = fn
}

func currentPendingObserver() func() int64 {
	pendingMu.Lock()
	defer pendingMu.Unlock()
	return pendingObserver
}

func combinedShutdown(fns ...func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		var firstErr error
		for _, fn := range fns {
			if err := fn(ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
}
