package runtime

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/dsl"
	"github.com/ArnavBalyan/concierge/pkg/state"
)

func noop(context.Context, *state.Store, domain.Args) (domain.Result, error) { return nil, nil }

func checkoutFlow(t *testing.T) *domain.Workflow {
	t.Helper()
	b := dsl.New("checkout")
	b.Stage("cart").To("pay").Task("add", noop).Param("sku", domain.TypeString)
	b.Stage("pay").To("cart", "done").Task("charge", noop).Enum("method", []string{"card", "pix"})
	b.Stage("done").Requires("cart.items", "user.payment_method", "user.address").Task("receipt", noop)
	wf, err := b.Build()
	require.NoError(t, err)
	return wf
}

func TestCheckPrerequisites(t *testing.T) {
	wf := checkoutFlow(t)
	done, _ := wf.Stage("done")

	tests := []struct {
		name  string
		state map[string]any
		want  []string
	}{
		{"empty state", nil, []string{"cart.items", "user.payment_method", "user.address"}},
		{"falsy values", map[string]any{
			"cart": map[string]any{"items": []any{}},
			"user": map[string]any{"payment_method": "", "address": nil},
		}, []string{"cart.items", "user.payment_method", "user.address"}},
		{"partially met", map[string]any{
			"user": map[string]any{"payment_method": "card"},
		}, []string{"cart.items", "user.address"}},
		{"all met", map[string]any{
			"cart": map[string]any{"items": []any{"x"}},
			"user": map[string]any{"payment_method": "card", "address": "Main St"},
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckPrerequisites(done, state.FromMap(tt.state)))
		})
	}
}

func TestMachineEnter(t *testing.T) {
	wf := checkoutFlow(t)
	m := NewMachine(wf)
	sess := domain.NewSession("s1", wf)
	sess.Pending = &domain.PendingRequest{Task: "add", Stage: "cart"}

	_, err := m.Enter(sess, "nowhere")
	var unknown *domain.UnknownStageError
	require.ErrorAs(t, err, &unknown)

	_, err = m.Enter(sess, "done")
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "cart", invalid.From)

	failing, err := m.Enter(sess, "pay")
	require.NoError(t, err)
	assert.Empty(t, failing)
	assert.Equal(t, "pay", sess.CurrentStage)
	assert.Nil(t, sess.Pending)

	failing, err = m.Enter(sess, "done")
	require.NoError(t, err)
	assert.Len(t, failing, 3)
	assert.Equal(t, "pay", sess.CurrentStage)
}

func TestMachineResolve(t *testing.T) {
	wf := checkoutFlow(t)
	m := NewMachine(wf)
	sess := domain.NewSession("s1", wf)

	stage, task, err := m.Resolve(sess, "add")
	require.NoError(t, err)
	assert.Equal(t, "cart", stage.Name)
	assert.Equal(t, "add", task.Name)

	_, _, err = m.Resolve(sess, "charge")
	var notAvailable *domain.TaskNotAvailableError
	require.ErrorAs(t, err, &notAvailable)
	assert.Equal(t, []string{"add"}, notAvailable.Available)

	_, _, err = m.Resolve(sess, "refund")
	var unknown *domain.UnknownTaskError
	assert.ErrorAs(t, err, &unknown)
}

func TestBuildView(t *testing.T) {
	wf := checkoutFlow(t)
	sess := domain.NewSession("s1", wf)
	sess.CurrentStage = "pay"

	v := BuildView(wf, sess)
	assert.Equal(t, "pay", v.Stage)
	assert.Equal(t, []string{"cart", "done"}, v.Transitions)
	require.Len(t, v.Tasks, 1)

	var in map[string]any
	require.NoError(t, json.Unmarshal(v.Tasks[0].InputSchema, &in))
	props := in["properties"].(map[string]any)
	method := props["method"].(map[string]any)
	assert.Equal(t, "string", method["type"])
	assert.Equal(t, []any{"card", "pix"}, method["enum"])

	require.Len(t, v.Controls, 3)
	var transition map[string]any
	require.NoError(t, json.Unmarshal(v.Controls[0].InputSchema, &transition))
	target := transition["properties"].(map[string]any)["target_stage"].(map[string]any)
	assert.Equal(t, []any{"cart", "done"}, target["enum"])

	sess.CurrentStage = "done"
	v = BuildView(wf, sess)
	assert.True(t, v.Terminal)
	require.Len(t, v.Controls, 2, "terminal stages offer no transition tool")
	assert.Equal(t, domain.ToolProvideState, v.Controls[0].Name)
}
