// Package demo provides the sample shop workflow used by the CLI and the examples.
package demo

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"

	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/dsl"
	"github.com/ArnavBalyan/concierge/pkg/registry"
	"github.com/ArnavBalyan/concierge/pkg/state"
)

// Product is a catalog entry.
type Product struct {
	ID    string
	Name  string
	Price float64
}

// Catalog is the fixed product list of the demo shop.
var Catalog = []Product{
	{ID: "p-100", Name: "Espresso machine", Price: 249.00},
	{ID: "p-101", Name: "Burr grinder", Price: 129.50},
	{ID: "p-102", Name: "Milk frother", Price: 39.90},
	{ID: "p-103", Name: "Coffee beans 1kg", Price: 24.00},
	{ID: "p-104", Name: "Pour over kettle", Price: 59.00},
}

// PaymentMethods are the accepted set_payment options.
var PaymentMethods = []string{"card", "pix", "invoice"}

func product(id string) (Product, bool) {
	for _, p := range Catalog {
		if strings.EqualFold(p.ID, id) {
			return p, true
		}
	}
	return Product{}, false
}

// Workflow builds the shop workflow: browse the catalog, fill a cart, pick a
// payment method, then check out.
func Workflow() *domain.Workflow {
	b := dsl.New("shop").Describe("Browse the coffee gear catalog and buy it")
	b.Stage("browse").Describe("Search the catalog").To("select").
		Task("search_products", SearchProducts).Describe("Search products by name").
		Param("query", domain.TypeString, dsl.Doc("Words to look for")).
		Param("limit", domain.TypeInteger, dsl.Default(5))
	b.Stage("select").Describe("Fill the cart and choose how to pay").To("browse", "checkout").
		Task("add_to_cart", AddToCart).Describe("Add a product to the cart").
		Param("product_id", domain.TypeString).
		Param("quantity", domain.TypeInteger, dsl.Default(1)).
		Task("set_payment", SetPayment).Describe("Choose the payment method").
		Enum("method", PaymentMethods)
	b.Stage("checkout").Describe("Place the order").
		Requires("cart.items", "user.payment_method").
		Task("complete_purchase", CompletePurchase).Describe("Place the order for the cart")
	return b.MustBuild()
}

// Handlers binds the task names used by the YAML version of the workflow.
func Handlers() *registry.Handlers {
	return registry.NewHandlers().
		MustRegister("search_products", SearchProducts).
		MustRegister("add_to_cart", AddToCart).
		MustRegister("set_payment", SetPayment).
		MustRegister("complete_purchase", CompletePurchase)
}

type catalogNames []Product

func (c catalogNames) String(i int) string { return strings.ToLower(c[i].Name) }
func (c catalogNames) Len() int            { return len(c) }

// SearchProducts matches the query fuzzily against product names.
func SearchProducts(_ context.Context, st *state.Store, args domain.Args) (domain.Result, error) {
	limit := args.Int("limit")
	if limit <= 0 {
		limit = 5
	}
	matches := fuzzy.FindFrom(strings.ToLower(args.String("query")), catalogNames(Catalog))
	found := make([]any, 0, limit)
	for _, m := range matches {
		if len(found) == limit {
			break
		}
		p := Catalog[m.Index]
		found = append(found, map[string]any{"id": p.ID, "name": p.Name, "price": p.Price})
	}
	if err := st.Set("catalog.last_query", args.String("query")); err != nil {
		return nil, err
	}
	return domain.Result{}.With("products", found).With("count", len(found)), nil
}

// AddToCart appends a line to cart.items and updates cart.total.
func AddToCart(_ context.Context, st *state.Store, args domain.Args) (domain.Result, error) {
	p, ok := product(args.String("product_id"))
	if !ok {
		return nil, fmt.Errorf("unknown product %q", args.String("product_id"))
	}
	qty := args.Int("quantity")
	if qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", qty)
	}

	items, _ := st.Get("cart.items")
	lines, _ := items.([]any)
	lines = append(append([]any{}, lines...), map[string]any{"product_id": p.ID, "quantity": qty, "price": p.Price})
	if err := st.Set("cart.items", lines); err != nil {
		return nil, err
	}

	total := cartTotal(lines)
	if err := st.Set("cart.total", total); err != nil {
		return nil, err
	}
	return domain.Result{}.
		With("added", p.Name).
		With("quantity", qty).
		With("cart_total", total), nil
}

// SetPayment records the chosen payment method.
func SetPayment(_ context.Context, st *state.Store, args domain.Args) (domain.Result, error) {
	method := args.String("method")
	if err := st.Set("user.payment_method", method); err != nil {
		return nil, err
	}
	return domain.Result{}.With("payment_method", method), nil
}

// CompletePurchase turns the cart into an order and empties it.
func CompletePurchase(_ context.Context, st *state.Store, _ domain.Args) (domain.Result, error) {
	items, _ := st.Get("cart.items")
	lines, _ := items.([]any)
	if len(lines) == 0 {
		return nil, fmt.Errorf("cart is empty")
	}
	method, _ := st.Get("user.payment_method")

	orderID := uuid.NewString()
	total := cartTotal(lines)
	if err := st.Set("orders.last", map[string]any{"id": orderID, "total": total}); err != nil {
		return nil, err
	}
	st.Delete("cart.items")
	st.Delete("cart.total")

	return domain.Result{}.
		With("order_id", orderID).
		With("total", total).
		With("payment_method", method), nil
}

// cartTotal sums price*quantity over the cart lines. Numbers may come back from a
// store as float64, so both int and float quantities are accepted.
func cartTotal(lines []any) float64 {
	var total float64
	for _, l := range lines {
		line, _ := l.(map[string]any)
		total += number(line["price"]) * number(line["quantity"])
	}
	return math.Round(total*100) / 100
}

func number(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}
