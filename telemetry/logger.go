package telemetry

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTELHook adds trace and span IDs to every log entry carrying a
// context, so logs and traces correlate in the backend.
type OTELHook struct{}

func (h OTELHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}

	e.Str("trace_id", span.SpanContext().TraceID().String())
	e.Str("span_id", span.SpanContext().SpanID().String())

	if level == zerolog.ErrorLevel {
		span.SetStatus(codes.Error, msg)
	}
}

// Logger wraps zerolog with OTEL correlation.
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a structured logger for one engine component.
func NewLogger(component string) *Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("component", component).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// WithContext returns a logger bound to ctx for trace propagation.
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.Logger.With().Ctx(ctx).Logger()
	return &logger
}

// LogRuleFailure records a detection rule failing for one provider.
// Rule failures never abort the scan, so this is the only trace they
// leave besides the per-provider error in the scan result.
func (l *Logger) LogRuleFailure(ctx context.Context, workspaceID, provider, rule string, err error) {
	l.WithContext(ctx).Error().
		Err(err).
		Str("workspace_id", workspaceID).
		Str("provider", provider).
		Str("rule", rule).
		Msg("detection rule failed")
}

// LogScanComplete records the outcome of one workspace scan.
func (l *Logger) LogScanComplete(ctx context.Context, workspaceID string, findings, created int, durationMS float64) {
	l.WithContext(ctx).Info().
		Str("workspace_id", workspaceID).
		Int("findings", findings).
		Int("new_recommendations", created).
		Float64("duration_ms", durationMS).
		Msg("scan completed")
}
