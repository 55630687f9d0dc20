package dsl

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/state"
)

func body(context.Context, *state.Store, domain.Args) (domain.Result, error) {
	return domain.Result{}.With("ok", true), nil
}

func TestBuilder_ShopFlow(t *testing.T) {
	b := New("shop").Describe("demo")

	b.Stage("browse").
		Describe("Look around").
		To("select").
		Task("search", body).
		Describe("Search the catalog").
		Param("query", domain.TypeString).
		Param("limit", domain.TypeInteger, Default(10))

	b.Stage("select").
		To("browse", "checkout").
		Task("add_to_cart", body).
		Param("product_id", domain.TypeString).
		Param("quantity", "int")

	b.Stage("checkout").
		Requires("cart.items", "user.payment_method").
		Task("complete_purchase", body).
		Enum("method", []string{"card", "pix"}, Optional())

	wf, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if got := wf.StageNames(); !reflect.DeepEqual(got, []string{"browse", "select", "checkout"}) {
		t.Errorf("stages = %v", got)
	}
	if wf.EntryStage != "browse" {
		t.Errorf("entry = %q, want browse", wf.EntryStage)
	}
	if !wf.IsTerminal("checkout") {
		t.Error("checkout should be terminal")
	}

	search, _ := wf.Stages[0].Task("search")
	limit, _ := search.Param("limit")
	if limit.Required || limit.Default != 10 {
		t.Errorf("limit = %+v, want optional with default 10", limit)
	}
	query, _ := search.Param("query")
	if !query.Required {
		t.Error("params are required by default")
	}

	add, _ := wf.Stages[1].Task("add_to_cart")
	if qty, _ := add.Param("quantity"); qty.Type != domain.TypeInteger {
		t.Errorf("quantity type = %q, want integer", qty.Type)
	}

	checkout, _ := wf.Stage("checkout")
	if !reflect.DeepEqual(checkout.Prerequisites, []string{"cart.items", "user.payment_method"}) {
		t.Errorf("prerequisites = %v", checkout.Prerequisites)
	}
}

func TestBuilder_StageIsGetOrCreate(t *testing.T) {
	b := New("flow")
	b.Stage("a").To("b")
	b.Stage("b")
	b.Stage("a").Task("t", body)

	wf, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if len(wf.Stages) != 2 || len(wf.Stages[0].Tasks) != 1 {
		t.Errorf("unexpected shape: %+v", wf.Stages)
	}
}

func TestBuilder_ValidationErrors(t *testing.T) {
	t.Run("undefined target", func(t *testing.T) {
		b := New("flow")
		b.Stage("a").To("nowhere")

		_, err := b.Build()
		var target *domain.InvalidTransitionError
		if !errors.As(err, &target) {
			t.Fatalf("err = %v, want InvalidTransitionError", err)
		}
	})

	t.Run("entry with prerequisites", func(t *testing.T) {
		b := New("flow")
		b.Stage("a").Requires("token")

		_, err := b.Build()
		var target *domain.UnsatisfiableEntryError
		if !errors.As(err, &target) {
			t.Fatalf("err = %v, want UnsatisfiableEntryError", err)
		}
	})

	t.Run("custom entry", func(t *testing.T) {
		b := New("flow").Entry("b")
		b.Stage("a").Requires("token")
		b.Stage("b").To("a")

		wf, err := b.Build()
		if err != nil {
			t.Fatalf("Build() failed: %v", err)
		}
		if wf.Entry() != "b" {
			t.Errorf("entry = %q", wf.Entry())
		}
	})
}
