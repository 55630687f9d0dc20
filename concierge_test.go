package concierge_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnavBalyan/concierge"
	"github.com/ArnavBalyan/concierge/pkg/adapters/memory"
	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/dsl"
	"github.com/ArnavBalyan/concierge/pkg/ports"
	"github.com/ArnavBalyan/concierge/pkg/registry"
	"github.com/ArnavBalyan/concierge/pkg/state"
)

func counterWorkflow(t *testing.T, name string) *domain.Workflow {
	t.Helper()
	incr := func(_ context.Context, st *state.Store, _ domain.Args) (domain.Result, error) {
		v, _ := st.Get("count")
		n, _ := v.(int)
		if err := st.Set("count", n+1); err != nil {
			return nil, err
		}
		return domain.Result{}.With("count", n+1), nil
	}
	b := dsl.New(name).Describe("Counts calls")
	b.Stage("main").Task("incr", incr)
	return b.MustBuild()
}

func TestEngine_RegisterAndLookup(t *testing.T) {
	eng := concierge.New()
	require.NoError(t, eng.Register(counterWorkflow(t, "counter"), counterWorkflow(t, "tally")))

	wf, err := eng.Lookup("counter")
	require.NoError(t, err)
	assert.Equal(t, "counter", wf.Name)

	var dup *domain.DuplicateWorkflowError
	assert.ErrorAs(t, eng.Register(counterWorkflow(t, "counter")), &dup)

	assert.Len(t, eng.Workflows(), 2)
	found := eng.Search("tal")
	require.Len(t, found, 1)
	assert.Equal(t, "tally", found[0].Name)
}

func TestEngine_OptionsAreWired(t *testing.T) {
	store := memory.NewStore()
	history := memory.NewHistory()
	var mu sync.Mutex
	var outcomes []domain.Status
	hooks := domain.LifecycleHooks{OnOutcome: func(_ context.Context, e *domain.OutcomeEvent) {
		mu.Lock()
		defer mu.Unlock()
		outcomes = append(outcomes, e.Status)
	}}
	var tasks int
	taskHooks := domain.LifecycleHooks{OnTaskExecuted: func(context.Context, *domain.TaskEvent) { tasks++ }}

	eng := concierge.New(
		concierge.WithStore(store),
		concierge.WithRecorder(history),
		concierge.WithHooks(hooks),
		concierge.WithHooks(taskHooks),
		concierge.WithLockTimeout(time.Second),
		concierge.WithTaskTimeout(time.Second),
	)
	require.NoError(t, eng.Register(counterWorkflow(t, "counter")))

	ctx := context.Background()
	resp, err := eng.Handle(ctx, domain.Request{Workflow: "counter", Action: domain.Handshake()})
	require.NoError(t, err)
	resp, err = eng.Handle(ctx, domain.Request{Workflow: "counter", SessionID: resp.SessionID, Action: domain.Invoke("incr", nil)})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOK, resp.Status)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{resp.SessionID}, ids)

	sess, err := eng.Sessions().Load(ctx, resp.SessionID)
	require.NoError(t, err)
	count, _ := sess.State.Get("count")
	assert.EqualValues(t, 1, count)

	assert.Equal(t, 2, history.Len())
	assert.Equal(t, []domain.Status{domain.StatusOK, domain.StatusOK}, outcomes)
	assert.Equal(t, 1, tasks)
}

func TestEngine_LoadWorkflows(t *testing.T) {
	handlers := registry.NewHandlers().MustRegister("search_products",
		func(context.Context, *state.Store, domain.Args) (domain.Result, error) { return domain.Result{}, nil }).
		MustRegister("add_to_cart",
			func(context.Context, *state.Store, domain.Args) (domain.Result, error) { return domain.Result{}, nil }).
		MustRegister("set_payment",
			func(context.Context, *state.Store, domain.Args) (domain.Result, error) { return domain.Result{}, nil }).
		MustRegister("complete_purchase",
			func(context.Context, *state.Store, domain.Args) (domain.Result, error) { return domain.Result{}, nil })

	eng := concierge.New()
	require.NoError(t, eng.LoadWorkflows("examples/workflows", handlers))
	_, err := eng.Lookup("shop")
	require.NoError(t, err)

	err = concierge.New().LoadWorkflows("examples/workflows", registry.NewHandlers())
	assert.ErrorContains(t, err, "examples/workflows")
}

func TestEngine_RegisterFrom(t *testing.T) {
	eng := concierge.New()
	require.NoError(t, eng.RegisterFrom(
		memory.NewSource(counterWorkflow(t, "a")),
		ports.WorkflowSourceFunc(func() ([]*domain.Workflow, error) {
			return []*domain.Workflow{counterWorkflow(t, "b")}, nil
		}),
	))
	assert.Len(t, eng.Workflows(), 2)

	failing := ports.WorkflowSourceFunc(func() ([]*domain.Workflow, error) { return nil, assert.AnError })
	assert.ErrorIs(t, eng.RegisterFrom(failing), assert.AnError)
}
