package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnavBalyan/concierge/internal/config"
	"github.com/ArnavBalyan/concierge/internal/logging"
	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/interpret"
)

func handshake(t *testing.T, rt *Runtime, workflow string) *domain.Response {
	t.Helper()
	resp, err := rt.Engine.Handle(context.Background(), domain.Request{Workflow: workflow, Action: domain.Handshake()})
	require.NoError(t, err)
	return resp
}

func TestCreateEngine_Defaults(t *testing.T) {
	rt, err := CreateEngine(context.Background(), config.Default(), logging.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	resp := handshake(t, rt, "shop")
	assert.Equal(t, "browse", resp.Stage)

	records, err := rt.History.History(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCreateEngine_SessionDir(t *testing.T) {
	cfg := config.Default()
	cfg.SessionDir = t.TempDir()
	rt, err := CreateEngine(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	resp := handshake(t, rt, "shop")
	assert.FileExists(t, filepath.Join(cfg.SessionDir, resp.SessionID+".json"))
}

func TestCreateEngine_WorkflowsFromYAML(t *testing.T) {
	dir := t.TempDir()
	doc := `
name: support
stages:
  - name: triage
    tasks:
      - name: search_products
        params:
          - name: query
            type: string
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "support.yaml"), []byte(doc), 0o644))

	cfg := config.Default()
	cfg.WorkflowsPath = dir
	rt, err := CreateEngine(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	assert.Equal(t, "triage", handshake(t, rt, "support").Stage)
	_, err = rt.Engine.Lookup("shop")
	assert.Error(t, err)
}

func TestCreateEngine_RedisEncryptedAudited(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.RedisAddr = mr.Addr()
	cfg.SessionTTL = time.Hour
	cfg.AuditDSN = ":memory:"
	cfg.EncryptionKey = strings.Repeat("0f", 32)
	cfg.PIIPatterns = []string{"method"}

	rt, err := CreateEngine(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	ctx := context.Background()
	sid := handshake(t, rt, "shop").SessionID

	resp, err := rt.Engine.Handle(ctx, domain.Request{Workflow: "shop", SessionID: sid, Action: domain.Enter("select")})
	require.NoError(t, err)
	require.Equal(t, domain.StatusOK, resp.Status)
	resp, err = rt.Engine.Handle(ctx, domain.Request{
		Workflow: "shop", SessionID: sid,
		Action: domain.Invoke("set_payment", map[string]any{"method": "card"}),
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusOK, resp.Status)

	// Stored sessions are ciphertext.
	keys := mr.Keys()
	require.NotEmpty(t, keys)
	for _, k := range keys {
		if v, err := mr.Get(k); err == nil {
			assert.NotContains(t, v, "card")
		}
	}

	// The audit log masks the configured keys but the task saw the real value.
	records, err := rt.History.History(ctx, sid)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "***", records[2].Args["method"])
	assert.Equal(t, "card", resp.View.State["user"].(map[string]any)["payment_method"])
}

func TestCreateEngine_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"redis down", func(c *config.Config) { c.RedisAddr = "127.0.0.1:1" }},
		{"bad key", func(c *config.Config) { c.EncryptionKey = "abcd" }},
		{"bad pii pattern", func(c *config.Config) { c.PIIPatterns = []string{"("} }},
		{"missing workflows", func(c *config.Config) { c.WorkflowsPath = filepath.Join(t.TempDir(), "none.yaml") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			_, err := CreateEngine(context.Background(), cfg, logging.NewNop())
			assert.Error(t, err)
		})
	}
}

func TestNewInterpreter(t *testing.T) {
	cfg := config.Default()
	cfg.MaxInputSize = 128
	interp, err := NewInterpreter(cfg, interpret.Comprehensive, logging.NewNop())
	require.NoError(t, err)
	rules, ok := interp.(*interpret.Rules)
	require.True(t, ok)
	assert.Equal(t, 128, rules.Limit)
	assert.Equal(t, interpret.Comprehensive, rules.Detail)

	cfg.LLMModel = "gpt-4o-mini"
	cfg.LLMAPIKey = "test-key"
	cfg.LLMBaseURL = "http://127.0.0.1:1/v1"
	interp, err = NewInterpreter(cfg, interpret.Brief, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &interpret.Model{}, interp)
}

func TestParseDetail(t *testing.T) {
	for in, want := range map[string]interpret.Detail{"": interpret.Brief, "brief": interpret.Brief, "full": interpret.Comprehensive} {
		got, err := ParseDetail(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseDetail("verbose")
	assert.Error(t, err)
}
