/*
Package concierge orchestrates staged workflows for tool-calling agents.

A workflow is a set of stages connected by allowed transitions. Each stage offers
tasks (tools with a typed parameter schema) and may require state before it can be
entered. An agent talks to a session: it only sees the tasks of the session's
current stage, and the orchestrator collects missing parameters, checks
prerequisites and rejects moves the workflow does not allow, instead of letting
the agent call anything at any time.

# Concept

The Engine owns a registry of workflows and a session store. Every interaction is a
single action (handshake, invoke, answer, enter, state_input, terminate_session,
describe) addressed to a workflow session. Actions on one session are serialized;
different sessions run in parallel. Adapters expose the same Engine over HTTP
(pkg/adapters/http), MCP (pkg/adapters/mcp) and the terminal (cmd/concierge).

# Usage

Workflows are built with the dsl package or loaded from YAML with the loader package.

	b := dsl.New("shop")
	b.Stage("browse").To("checkout").
		Task("add_to_cart", addToCart).
		Param("product_id", domain.TypeString).
		Param("quantity", domain.TypeInteger, dsl.Default(1))
	b.Stage("checkout").Requires("cart.items").
		Task("complete_purchase", purchase)

	eng := concierge.New(concierge.WithTaskTimeout(10 * time.Second))
	if err := eng.Register(b.MustBuild()); err != nil {
		log.Fatal(err)
	}

	resp, err := eng.Handle(ctx, domain.Request{Workflow: "shop", Action: domain.Handshake()})
	// resp.SessionID addresses every following action; resp.View lists what it can do.

Responses with status needs_input, prerequisite_failed or invalid_transition are
normal control flow: the agent is told what is missing and the session is unchanged.
Configuration mistakes (unknown workflow, stage or task) and protocol mistakes
(calling a task of another stage, answering with nothing pending) are returned as
errors from Handle.
*/
package concierge
