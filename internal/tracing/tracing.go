// Package tracing wires OpenTelemetry spans around verifications.
package tracing

import (
	"context"
	"log/slog"
	"txguard/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "txguard"

type Options struct {
	Endpoint    string
	Version     string
	Environment string
	// SampleRatio is the share of new traces kept. Zero or above one keeps
	// everything; sampling decisions of a remote parent are always honoured.
	SampleRatio float64
}

// Init installs a global tracer provider exporting over OTLP gRPC. With an
// empty endpoint nothing is installed and the global no-op provider stays.
// The returned function flushes and stops the provider.
func Init(ctx context.Context, opts Options, logger *slog.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Endpoint == "" {
		logger.Info("Tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(opts.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := Resource(ctx, opts)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(opts.SampleRatio)),
	)
	otel.SetTracerProvider(tp)

	logger.Info("Tracing enabled",
		slog.String("endpoint", opts.Endpoint),
		slog.Float64("sample_ratio", opts.SampleRatio))
	return tp.Shutdown, nil
}

func Resource(ctx context.Context, opts Options) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(tracerName)}
	if opts.Version != "" {
		attrs = append(attrs, semconv.ServiceVersion(opts.Version))
	}
	if opts.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(opts.Environment))
	}
	return resource.New(ctx, resource.WithAttributes(attrs...))
}

func Sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

func TransactionID(id string) attribute.KeyValue {
	return attribute.String("transaction.id", id)
}

func AccountID(id string) attribute.KeyValue {
	return attribute.String("account.id", id)
}

func Amount(amount string) attribute.KeyValue {
	return attribute.String("amount", amount)
}

func Status(status string) attribute.KeyValue {
	return attribute.String("verification.status", status)
}

func RiskScore(score int) attribute.KeyValue {
	return attribute.Int("verification.risk_score", score)
}

func RiskLevel(level string) attribute.KeyValue {
	return attribute.String("verification.risk_level", level)
}

// RecordDecision annotates span with the outcome of a verification. Blocked
// reasons become events so a REJECTED span shows which limit tripped.
func RecordDecision(span trace.Span, v domain.TransactionVerification, fraudFlags []string) {
	span.SetAttributes(
		Status(string(v.Status)),
		RiskScore(v.RiskScore),
		RiskLevel(string(v.RiskLevel)),
		attribute.Bool("verification.requires_mfa", v.RequiresMFA),
		attribute.Bool("verification.requires_approval", v.RequiresApproval),
		attribute.StringSlice("verification.fraud_flags", fraudFlags),
	)
	for _, reason := range v.BlockedReasons {
		span.AddEvent("limit.blocked", trace.WithAttributes(attribute.String("reason", reason)))
	}
}

// RecordFailure marks span as failed. A failure is never a decision, so no
// verification attributes are set.
func RecordFailure(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
