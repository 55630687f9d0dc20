package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/registry"
	"github.com/ArnavBalyan/concierge/pkg/state"
)

const shopYAML = `
name: shop
description: Browse and buy
stages:
  - name: browse
    to: [select]
    tasks:
      - name: search_products
        description: Search the catalog
        params:
          - name: query
            type: string
          - name: limit
            type: int
            default: 10
  - name: select
    to: [browse, checkout]
    tasks:
      - name: add_to_cart
        params:
          - name: product_id
            type: string
          - name: quantity
            type: integer
  - name: checkout
    requires: [cart.items, user.payment_method]
    tasks:
      - name: complete_purchase
        handler: purchase
        params:
          - name: method
            type: enum
            options: [card, pix]
            required: false
---
name: support
stages:
  - name: triage
    tasks:
      - name: search_products
`

func handlers() *registry.Handlers {
	fn := func(context.Context, *state.Store, domain.Args) (domain.Result, error) { return nil, nil }
	return registry.NewHandlers().
		MustRegister("search_products", fn).
		MustRegister("add_to_cart", fn).
		MustRegister("purchase", fn)
}

func TestParse_MultiDocument(t *testing.T) {
	wfs, err := Parse([]byte(shopYAML), handlers())
	require.NoError(t, err)
	require.Len(t, wfs, 2)

	shop := wfs[0]
	assert.Equal(t, "shop", shop.Name)
	assert.Equal(t, []string{"browse", "select", "checkout"}, shop.StageNames())
	assert.True(t, shop.CanTransition("select", "checkout"))
	assert.True(t, shop.IsTerminal("checkout"))

	browse, _ := shop.Stage("browse")
	search, _ := browse.Task("search_products")
	limit, _ := search.Param("limit")
	assert.Equal(t, domain.TypeInteger, limit.Type)
	assert.False(t, limit.Required)
	assert.Equal(t, 10, limit.Default)

	checkout, _ := shop.Stage("checkout")
	assert.Equal(t, []string{"cart.items", "user.payment_method"}, checkout.Prerequisites)
	purchase, _ := checkout.Task("complete_purchase")
	method, _ := purchase.Param("method")
	assert.False(t, method.Required)
	assert.Equal(t, []string{"card", "pix"}, method.Options)

	assert.Equal(t, "support", wfs[1].Name)
}

func TestParse_Errors(t *testing.T) {
	t.Run("unbound handler", func(t *testing.T) {
		_, err := Parse([]byte("name: x\nstages:\n  - name: a\n    tasks:\n      - name: fly\n"), handlers())
		var target *UnboundHandlerError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "fly", target.Handler)
	})

	t.Run("undefined transition target", func(t *testing.T) {
		_, err := Parse([]byte("name: x\nstages:\n  - name: a\n    to: [b]\n"), handlers())
		var target *domain.InvalidTransitionError
		assert.ErrorAs(t, err, &target)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Parse([]byte("name: x\nstagez: []\n"), handlers())
		assert.ErrorContains(t, err, "stagez")
	})
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("name: b\nstages:\n  - name: s\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yml"), []byte("name: a\nstages:\n  - name: s\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	wfs, err := Load(dir, handlers())
	require.NoError(t, err)
	require.Len(t, wfs, 2)
	assert.Equal(t, "a", wfs[0].Name)
	assert.Equal(t, "b", wfs[1].Name)
}
