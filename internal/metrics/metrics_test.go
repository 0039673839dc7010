package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRun(t *testing.T) {
	m := New()

	m.ObserveRun("accepted", 2, 3*time.Second)
	m.ObserveRun("accepted", 1, time.Second)
	m.ObserveRun("exhausted", 5, 10*time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.runsTotal.WithLabelValues("accepted")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runsTotal.WithLabelValues("exhausted")))
}

func TestObserveFilterFailure(t *testing.T) {
	m := New()

	m.ObserveFilterFailure("keyword_coverage")
	m.ObserveFilterFailure("keyword_coverage")
	m.ObserveFilterFailure("structure")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.filterFailures.WithLabelValues("keyword_coverage")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.filterFailures.WithLabelValues("structure")))
}

func TestHandlerServesExposition(t *testing.T) {
	m := New()
	m.ObserveRun("accepted", 1, time.Second)
	m.ObserveGeneration(2 * time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "hrbreaker_runs_total")
	assert.Contains(t, body, "hrbreaker_generation_seconds")
	assert.Contains(t, body, "go_goroutines")
}

func TestRegistriesAreIsolated(t *testing.T) {
	a := New()
	b := New()

	a.ObserveRun("accepted", 1, time.Second)

	families, err := b.Gather().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == "hrbreaker_runs_total" {
			t.Fatalf("second registry must not see the first registry's counters")
		}
	}
}
