package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnavBalyan/concierge/internal/logging"
	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/observability"
)

func TestMetricsHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()
	base := domain.EventBase{SessionID: "s1", Workflow: "shop"}

	hooks.OnOutcome(ctx, &domain.OutcomeEvent{EventBase: base, Action: domain.ActionInvoke, Status: domain.StatusOK})
	hooks.OnOutcome(ctx, &domain.OutcomeEvent{EventBase: base, Action: domain.ActionInvoke, Status: domain.StatusOK})
	hooks.OnOutcome(ctx, &domain.OutcomeEvent{EventBase: base, Action: domain.ActionEnter, Status: domain.StatusPrerequisiteFailed})
	hooks.OnStageEntered(ctx, &domain.StageEvent{EventBase: base, From: "browse", To: "select"})
	hooks.OnTaskExecuted(ctx, &domain.TaskEvent{EventBase: base, Task: "add_to_cart", Duration: 20 * time.Millisecond})
	hooks.OnTaskExecuted(ctx, &domain.TaskEvent{EventBase: base, Task: "add_to_cart", IsError: true})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Actions.WithLabelValues("shop", "invoke", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues("shop", "enter", "prerequisite_failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageEntry.WithLabelValues("shop", "select")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TaskErrors.WithLabelValues("shop", "add_to_cart")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TaskSeconds))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `concierge_actions_total{action="invoke",status="ok",workflow="shop"} 2`)
}

func TestMetrics_NilRegistererIsPrivate(t *testing.T) {
	// Registering twice would panic on a shared registry.
	require.NotPanics(t, func() {
		observability.NewMetrics(nil)
		observability.NewMetrics(nil)
	})
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := observability.LogHooks(logging.NewWriter(&buf, slog.LevelDebug, true))

	hooks.OnOutcome(context.Background(), &domain.OutcomeEvent{
		EventBase: domain.EventBase{SessionID: "s1", Workflow: "shop"},
		Action:    domain.ActionInvoke,
		Status:    domain.StatusError,
	})
	out := buf.String()
	assert.True(t, strings.Contains(out, `"level":"WARN"`), out)
	assert.Contains(t, out, `"msg":"action_handled"`)
	assert.Contains(t, out, `"session_id":"s1"`)
}
