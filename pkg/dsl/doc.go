/*
Package dsl provides a fluent builder for declaring Concierge workflows in Go.

A workflow is assembled once at startup by naming its stages, their tasks and
parameter schemas, prerequisites and transitions. Build runs the same checks as
registration, so a malformed workflow fails before it reaches the registry.

Example usage:

	b := dsl.New("shop").Describe("Browse products and check out")

	b.Stage("browse").
		To("select").
		Task("search_products", searchProducts).
		Describe("Search the catalog").
		Param("query", domain.TypeString).
		Param("limit", domain.TypeInteger, dsl.Default(10))

	b.Stage("select").
		To("browse", "checkout").
		Task("add_to_cart", addToCart).
		Param("product_id", domain.TypeString).
		Param("quantity", domain.TypeInteger)

	b.Stage("checkout").
		Requires("cart.items", "user.payment_method").
		Task("complete_purchase", completePurchase)

	wf, err := b.Build()
	// ... engine.Register(wf)
*/
package dsl
