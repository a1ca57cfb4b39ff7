package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracerDisabledReturnsNil(t *testing.T) {
	tp, err := InitTracer(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, tp)
}

func TestSamplerClampsRate(t *testing.T) {
	assert.Contains(t, Config{SamplingRate: 0}.sampler().Description(), "root:AlwaysOnSampler")
	assert.Contains(t, Config{SamplingRate: 7}.sampler().Description(), "root:AlwaysOnSampler")
	assert.Contains(t, Config{SamplingRate: 0.25}.sampler().Description(), "TraceIDRatioBased{0.25}")
}

func TestTruncateStatement(t *testing.T) {
	short := "SELECT 1"
	assert.Equal(t, short, truncateStatement(short))

	long := strings.Repeat("x", maxStatementLength+10)
	got := truncateStatement(long)
	assert.True(t, strings.HasSuffix(got, "... (truncated)"))
	assert.Len(t, got, maxStatementLength+len("... (truncated)"))
}

func TestInstrumentedClientPerformsRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := NewInstrumentedHTTPClient(0).Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestEventSpansEndWithoutProvider(t *testing.T) {
	_, span := TraceVote(context.Background(), "post", "p1", "UP", "created")
	assert.NotPanics(t, func() { EndSpan(span, assert.AnError) })

	_, span = TraceKarma(context.Background(), "calculate", 1)
	assert.NotPanics(t, func() { EndSpan(span, nil) })
}
