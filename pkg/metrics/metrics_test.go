package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lewisedginton/shopping_assistant/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() logger.Logger {
	return logger.NewLogger(logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestHTTPMiddlewareCountsRequests(t *testing.T) {
	m := NewMetrics(true, false, newTestLogger())

	handler := m.HTTPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	}
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	out := scrape(t, &m)
	assert.Contains(t, out, "app_total_http_requests 4")
	assert.Contains(t, out, "app_total_200_http_responses 3")
	assert.Contains(t, out, "app_total_404_http_responses 1")
}

func TestPipelineCounters(t *testing.T) {
	m := NewMetrics(false, true, newTestLogger())

	m.IncrementChatRequests("product_search")
	m.IncrementChatRequests("product_search")
	m.IncrementChatRequests("general_chat")
	m.IncrementProviderFallbacks("groq")
	m.IncrementMemoryInjections("critical")

	out := scrape(t, &m)
	assert.Contains(t, out, `app_total_chat_requests{intent="product_search"} 2`)
	assert.Contains(t, out, `app_total_chat_requests{intent="general_chat"} 1`)
	assert.Contains(t, out, `app_total_provider_fallbacks{provider="groq"} 1`)
	assert.Contains(t, out, `app_total_memory_injections{importance="critical"} 1`)
}

func TestPipelineCountersNilSafeWhenDisabled(t *testing.T) {
	m := NewMetrics(true, false, newTestLogger())

	// Must not panic when pipeline counters are disabled
	m.IncrementChatRequests("general_chat")
	m.IncrementProviderFallbacks("openai")
	m.IncrementMemoryInjections("none")

	out := scrape(t, &m)
	assert.False(t, strings.Contains(out, "app_total_chat_requests"))
}
