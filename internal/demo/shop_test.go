package demo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/loader"
	"github.com/ArnavBalyan/concierge/pkg/state"
)

func TestWorkflow_MatchesYAML(t *testing.T) {
	built := Workflow()

	loaded, err := loader.LoadFile("../../examples/workflows/shop.yaml", Handlers())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	yml := loaded[0]

	assert.Equal(t, built.Name, yml.Name)
	assert.Equal(t, built.Description, yml.Description)
	assert.Equal(t, built.StageNames(), yml.StageNames())
	for _, name := range built.StageNames() {
		assert.Equal(t, built.Next(name), yml.Next(name), name)
		a, _ := built.Stage(name)
		b, _ := yml.Stage(name)
		assert.Equal(t, a.Prerequisites, b.Prerequisites, name)
		require.Len(t, b.Tasks, len(a.Tasks), name)
		for i := range a.Tasks {
			assert.Equal(t, a.Tasks[i].Name, b.Tasks[i].Name)
			assert.Len(t, b.Tasks[i].Params, len(a.Tasks[i].Params))
		}
	}
}

func TestSearchProducts(t *testing.T) {
	st := state.New()
	res, err := SearchProducts(context.Background(), st, domain.Args{"query": "grinder", "limit": 5})
	require.NoError(t, err)

	count, _ := res.Get("count")
	assert.Equal(t, 1, count)
	products, _ := res.Get("products")
	assert.Equal(t, "p-101", products.([]any)[0].(map[string]any)["id"])

	last, _ := st.Get("catalog.last_query")
	assert.Equal(t, "grinder", last)
}

func TestCartAndPurchase(t *testing.T) {
	ctx := context.Background()
	st := state.New()

	_, err := AddToCart(ctx, st, domain.Args{"product_id": "p-102", "quantity": 2})
	require.NoError(t, err)
	res, err := AddToCart(ctx, st, domain.Args{"product_id": "P-103", "quantity": 1})
	require.NoError(t, err)
	total, _ := res.Get("cart_total")
	assert.Equal(t, 103.8, total)

	_, err = AddToCart(ctx, st, domain.Args{"product_id": "p-999", "quantity": 1})
	assert.ErrorContains(t, err, "unknown product")
	_, err = AddToCart(ctx, st, domain.Args{"product_id": "p-100", "quantity": 0})
	assert.ErrorContains(t, err, "quantity must be positive")

	_, err = SetPayment(ctx, st, domain.Args{"method": "pix"})
	require.NoError(t, err)

	res, err = CompletePurchase(ctx, st, domain.Args{})
	require.NoError(t, err)
	id, _ := res.Get("order_id")
	assert.NotEmpty(t, id)
	assert.False(t, st.Exists("cart.items"))

	last, ok := st.Get("orders.last")
	require.True(t, ok)
	assert.Equal(t, 103.8, last.(map[string]any)["total"])

	_, err = CompletePurchase(ctx, st, domain.Args{})
	assert.ErrorContains(t, err, "cart is empty")
}

func TestCartTotal_FloatQuantities(t *testing.T) {
	// Sessions restored from JSON carry float64 numbers.
	lines := []any{map[string]any{"price": 10.0, "quantity": 3.0}}
	assert.Equal(t, 30.0, cartTotal(lines))
}
