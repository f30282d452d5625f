package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry(), false)
}

func TestRecorderCounters(t *testing.T) {
	m := newTestMetrics()

	m.MenuRendered("main_menu")
	m.MenuRendered("main_menu")
	m.MenuRendered("sidebar_menu")
	m.URLResolutionFailed("treemenu_missing")
	m.URLResolutionFailed("treemenu_gone")
	m.CorruptChain(4)
	m.ValidationRejected("parent")
	m.ValidationRejected("")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.renders.WithLabelValues("main_menu")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.renders.WithLabelValues("sidebar_menu")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.resolutionFailures))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.corruptChains))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.validationRejected.WithLabelValues("parent")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.validationRejected.WithLabelValues("_")))
}

func TestExposition(t *testing.T) {
	m := newTestMetrics()
	m.CorruptChain(1)
	m.URLResolutionFailed("treemenu_missing")

	expected := `
# HELP treemenu_url_resolution_failures_total Named routes that failed to resolve while rendering.
# TYPE treemenu_url_resolution_failures_total counter
treemenu_url_resolution_failures_total 1
# HELP treemenu_corrupt_chains_total Pre-existing parent loops met while validating a save.
# TYPE treemenu_corrupt_chains_total counter
treemenu_corrupt_chains_total 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "treemenu_corrupt_chains_total", "treemenu_url_resolution_failures_total"))
}

func TestHandlerAndInstrumentation(t *testing.T) {
	m := newTestMetrics()

	ok := m.InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequests.WithLabelValues("get", "204")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "treemenu_http_requests_total")
}

func TestNew_RuntimeCollectors(t *testing.T) {
	m := New()
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "go_goroutines")
}
