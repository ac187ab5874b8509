package tracing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"txguard/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := useRecorder(t)
	return recorder
}

func TestInit_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), Options{}, nil)
	require.NoError(t, err)

	assert.NoError(t, shutdown(context.Background()))
}

func TestStartSpan_RecordsAttributes(t *testing.T) {
	recorder := useRecorder(t)

	_, span := StartSpan(context.Background(), "verify", TransactionID("txn_1"), RiskScore(42))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "verify", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), TransactionID("txn_1"))
	assert.Contains(t, spans[0].Attributes(), RiskScore(42))
}

func TestRecordDecision_RejectedCarriesBlockedReasons(t *testing.T) {
	recorder := useRecorder(t)

	_, span := StartSpan(context.Background(), "verification.verify")
	RecordDecision(span, domain.TransactionVerification{
		Status:         domain.StatusRejected,
		RiskLevel:      domain.RiskLow,
		RiskScore:      0,
		BlockedReasons: []string{"Amount exceeds single transaction limit"},
	}, []string{"large_amount"})
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := spans[0].Attributes()
	assert.Contains(t, attrs, Status("REJECTED"))
	assert.Contains(t, attrs, RiskLevel("LOW"))
	assert.Contains(t, attrs, attribute.Bool("verification.requires_mfa", false))
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "limit.blocked", spans[0].Events()[0].Name)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestRecordFailure_SetsErrorStatus(t *testing.T) {
	recorder := useRecorder(t)

	_, span := StartSpan(context.Background(), "account.lock")
	RecordFailure(span, errors.New("account lock not acquired"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "account lock not acquired", spans[0].Status().Description)
}

func TestResource_CarriesVersionAndEnvironment(t *testing.T) {
	res, err := Resource(context.Background(), Options{Version: "1.4.0", Environment: "staging"})
	require.NoError(t, err)

	attrs := res.Attributes()
	assert.Contains(t, attrs, semconv.ServiceName("txguard"))
	assert.Contains(t, attrs, semconv.ServiceVersion("1.4.0"))
	assert.Contains(t, attrs, semconv.DeploymentEnvironment("staging"))
}

func TestSampler_RatioBounds(t *testing.T) {
	assert.True(t, strings.HasPrefix(Sampler(0).Description(), "ParentBased{root:AlwaysOnSampler,"))
	assert.True(t, strings.HasPrefix(Sampler(1).Description(), "ParentBased{root:AlwaysOnSampler,"))
	assert.True(t, strings.HasPrefix(Sampler(0.25).Description(), "ParentBased{root:TraceIDRatioBased{0.25},"))
}
