package concierge_test

import (
	"context"
	"fmt"
	"log"

	"github.com/ArnavBalyan/concierge"
	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/dsl"
	"github.com/ArnavBalyan/concierge/pkg/state"
)

func greet(_ context.Context, st *state.Store, args domain.Args) (domain.Result, error) {
	name := args.String("name")
	if err := st.Set("user.name", name); err != nil {
		return nil, err
	}
	return domain.Result{}.With("message", "Hello, "+name), nil
}

// ExampleNew walks one session through parameter collection and a gated transition.
func ExampleNew() {
	b := dsl.New("greeter").Describe("Say hello")
	b.Stage("intro").To("done").
		Task("greet", greet).Param("name", domain.TypeString)
	b.Stage("done").Requires("user.name")

	eng := concierge.New()
	if err := eng.Register(b.MustBuild()); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	do := func(sessionID string, action domain.Action) *domain.Response {
		resp, err := eng.Handle(ctx, domain.Request{Workflow: "greeter", SessionID: sessionID, Action: action})
		if err != nil {
			log.Fatal(err)
		}
		return resp
	}

	resp := do("", domain.Handshake())
	sid := resp.SessionID
	fmt.Println(resp.Stage, len(resp.View.Tasks))

	resp = do(sid, domain.Enter("done"))
	fmt.Println(resp.Status, resp.Prerequisites.Missing)

	resp = do(sid, domain.Invoke("greet", nil))
	fmt.Println(resp.Status, resp.Missing.Names())

	resp = do(sid, domain.Answer(map[string]any{"name": "Ada"}))
	msg, _ := resp.Result.Get("message")
	fmt.Println(resp.Status, msg)

	resp = do(sid, domain.Enter("done"))
	fmt.Println(resp.Status, resp.Stage)

	// Output:
	// intro 1
	// prerequisite_failed [user.name]
	// needs_input [name]
	// ok Hello, Ada
	// ok done
}
