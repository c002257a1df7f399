package dynaprompt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeExpansion(&ExpansionResult{IsValid: true, TotalCount: 1})
		m.observeEnhancement(true)
		m.observeStoreReload(nil)
	})
}

func TestMetrics_ObserveExpansion(t *testing.T) {
	m := NewMetrics()
	cfg := DefaultExpansionConfig()

	m.observeExpansion(Expand("plain", cfg, nil))
	m.observeExpansion(Expand("[a,b]", cfg, nil))
	m.observeExpansion(Expand("[a,b] x | [c,d] y", cfg, nil))
	m.observeExpansion(Expand("a [b", cfg, nil))
	m.observeExpansion(Expand("_ghost_", cfg, nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.expansions.WithLabelValues(ModeNameBracket)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.expansions.WithLabelValues(ModeNameCombined)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rejections.WithLabelValues(KindStructuralSyntax.String())))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rejections.WithLabelValues(KindMissingWildcard.String())))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.rejections.WithLabelValues(KindLimitExceeded.String())))
}

func TestMetrics_StoreAndEnhancer(t *testing.T) {
	m := NewMetrics()

	m.observeStoreReload(nil)
	m.observeStoreReload(nil)
	m.observeStoreReload(errors.New("boom"))
	m.observeEnhancement(true)
	m.observeEnhancement(false)
	m.observeEnhancement(false)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.storeReloads.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.storeReloads.WithLabelValues("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.enhancements.WithLabelValues("hit")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.enhancements.WithLabelValues("miss")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	engine := MustNew(WithMetrics(m))

	_, err := engine.Expand(context.Background(), "[a,b,c]")
	require.NoError(t, err)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `dynaprompt_expander_expansions_total{mode="bracket"} 1`)
	assert.Contains(t, string(body), "dynaprompt_expander_prompts_per_expansion_count 1")
}
