package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voipbits/internal/metrics"
	"voipbits/internal/tracing"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestObservability_PropagatesRequestID(t *testing.T) {
	var seenRequestID string
	handler := Observability(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenRequestID = tracing.GetRequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, seenRequestID)
}

func TestObservability_RecordsMetrics(t *testing.T) {
	metrics.GetRegistry().Reset()

	handler := Observability(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/send", nil))

	snapshot := metrics.GetRegistry().GetSnapshot()

	var foundRequest, foundResponse bool
	for _, counter := range snapshot.Counters {
		switch counter.Name {
		case "http_requests_total":
			foundRequest = true
			assert.Equal(t, "/send", counter.Labels["endpoint"])
		case "http_responses_total":
			foundResponse = true
			assert.Equal(t, "418", counter.Labels["status_code"])
		}
	}
	assert.True(t, foundRequest)
	assert.True(t, foundResponse)
}

func TestObservability_DefaultStatusIsOK(t *testing.T) {
	handler := Observability(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte("ok"))
		require.NoError(t, err)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		expected string
	}{
		{
			name: "X-Forwarded-For single address",
			setup: func(r *http.Request) {
				r.Header.Set("X-Forwarded-For", "203.0.113.5")
			},
			expected: "203.0.113.5",
		},
		{
			name: "X-Forwarded-For chain takes first",
			setup: func(r *http.Request) {
				r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1, 10.0.0.2")
			},
			expected: "203.0.113.5",
		},
		{
			name: "X-Real-IP fallback",
			setup: func(r *http.Request) {
				r.Header.Set("X-Real-IP", "198.51.100.7")
			},
			expected: "198.51.100.7",
		},
		{
			name:     "RemoteAddr with port",
			setup:    func(r *http.Request) {},
			expected: "192.0.2.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)
			assert.Equal(t, tt.expected, GetClientIP(r))
		})
	}
}
