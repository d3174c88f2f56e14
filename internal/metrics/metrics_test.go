package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workflow-sync/backend/pkg/models"
)

func scrape(t *testing.T, m *Metrics) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Code, rec.Body.String()
}

func TestMetrics_ExportsPassesAndRefreshes(t *testing.T) {
	m, err := New(true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	ctx := context.Background()

	m.RecordPass(ctx, models.SyncReport{Outcome: models.SyncOutcomeSuccess, Added: 2, Updated: 3, Duration: time.Second})
	m.RecordPass(ctx, models.SyncReport{Outcome: models.SyncOutcomeSkipped})
	m.TokenRefreshed(ctx)

	code, body := scrape(t, m)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "workflow_sync_passes")
	assert.Contains(t, body, `outcome="success"`)
	assert.Contains(t, body, `outcome="skipped"`)
	assert.Contains(t, body, `op="add"`)
	assert.Contains(t, body, "workflow_sync_token_refreshes")
	assert.Contains(t, body, "workflow_sync_pass_duration")
}

func TestMetrics_Disabled(t *testing.T) {
	m, err := New(false)
	require.NoError(t, err)

	m.RecordPass(context.Background(), models.SyncReport{Outcome: models.SyncOutcomeFailed})
	m.TokenRefreshed(context.Background())

	assert.False(t, m.Enabled())
	code, _ := scrape(t, m)
	assert.Equal(t, http.StatusNotFound, code)
	assert.NoError(t, m.Shutdown(context.Background()))
}
