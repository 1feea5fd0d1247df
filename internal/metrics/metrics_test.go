package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Candidate(OutcomeAccepted)
	m.Candidate(OutcomeAccepted)
	m.Candidate(OutcomeIrrelevant)
	m.APIRequest("nearby_search", "OK")

	assert.InDelta(t, 2, testutil.ToFloat64(m.Candidates.WithLabelValues(OutcomeAccepted)), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Candidates.WithLabelValues(OutcomeIrrelevant)), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.APIRequests.WithLabelValues("nearby_search", "OK")), 0.001)
	assert.Equal(t, 3, testutil.CollectAndCount(m.Candidates)+testutil.CollectAndCount(m.APIRequests))
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.PairFailures.Inc()
	assert.InDelta(t, 1, testutil.ToFloat64(a.PairFailures), 0.001)
	assert.InDelta(t, 0, testutil.ToFloat64(b.PairFailures), 0.001)
}

func TestPush(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := New()
	m.Candidate(OutcomeClosed)
	require.NoError(t, m.Push(context.Background(), srv.URL, "locations_cli"))

	assert.True(t, strings.HasSuffix(gotPath, "/job/locations_cli"), gotPath)
	assert.NotEmpty(t, gotBody)
}

func TestPush_Disabled(t *testing.T) {
	assert.NoError(t, New().Push(context.Background(), "", "job"))
}

func TestPush_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := New().Push(context.Background(), srv.URL, "job")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics: push")
}
