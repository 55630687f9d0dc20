package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ArnavBalyan/concierge/internal/presentation/tui"
	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/interpret"
	"github.com/ArnavBalyan/concierge/pkg/ports"
)

// ChatOptions configures an interactive session.
type ChatOptions struct {
	Workflow  string
	SessionID string // Resume this session; empty starts a new one

	// Interpreter maps typed lines onto actions and renders responses.
	Interpreter ports.Interpreter
	// Render styles the interpreter's markdown (tui.Plain when nil).
	Render tui.Renderer
	// JSON switches to JSON lines: each input line is an action, each output line a response.
	JSON bool

	In  io.Reader
	Out io.Writer
}

// RunChat handshakes with the workflow and runs a read-act-print loop until the input
// ends, the session is terminated, or ctx is cancelled.
func RunChat(ctx context.Context, engine ports.Engine, opts ChatOptions) error {
	if opts.Interpreter == nil {
		opts.Interpreter = interpret.NewRules(interpret.Brief)
	}
	if opts.Render == nil {
		opts.Render = tui.Plain
	}
	c := &chat{engine: engine, opts: opts, enc: json.NewEncoder(opts.Out)}

	resp, err := c.handle(ctx, domain.Handshake())
	if err != nil {
		return err
	}
	c.sessionID = resp.SessionID
	if !opts.JSON {
		printSystemMessage(opts.Out, "Session %s on workflow %s. Type 'help' for tools, 'quit' to leave.",
			resp.SessionID, resp.Workflow)
	}
	c.print(resp)

	stop := make(chan struct{})
	defer close(stop)
	lines := readLines(opts.In, stop)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			done, err := c.step(ctx, line)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

type chat struct {
	engine    ports.Engine
	opts      ChatOptions
	enc       *json.Encoder
	sessionID string
	view      *domain.View
}

func (c *chat) handle(ctx context.Context, action domain.Action) (*domain.Response, error) {
	return c.engine.Handle(ctx, domain.Request{
		Workflow:  c.opts.Workflow,
		SessionID: c.sessionID,
		Action:    action,
	})
}

// step runs one input line. It reports true once the session is over.
func (c *chat) step(ctx context.Context, line string) (bool, error) {
	var action domain.Action
	if c.opts.JSON {
		if err := json.Unmarshal([]byte(line), &action); err != nil {
			return false, c.enc.Encode(map[string]any{
				"status": domain.StatusError,
				"error":  domain.ErrorInfo{Code: domain.CodeInvalidRequest, Message: err.Error()},
			})
		}
	} else {
		var err error
		action, err = c.opts.Interpreter.Interpret(ctx, line, c.view)
		if err != nil {
			if errors.Is(err, interpret.ErrNoMatch) || errors.Is(err, interpret.ErrNoToolCall) {
				fmt.Fprintf(c.opts.Out, "? %v\n", err)
				return false, nil
			}
			return false, err
		}
	}

	resp, err := c.handle(ctx, action)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		resp = domain.ErrorResponse(domain.Request{Workflow: c.opts.Workflow, SessionID: c.sessionID, Action: action}, err)
	}
	c.print(resp)
	return resp.Terminated, nil
}

func (c *chat) print(resp *domain.Response) {
	if resp.View != nil {
		c.view = resp.View
	}
	if c.opts.JSON {
		_ = c.enc.Encode(resp)
		return
	}
	body, err := c.opts.Render(c.opts.Interpreter.Render(resp))
	if err != nil {
		body = c.opts.Interpreter.Render(resp)
	}
	fmt.Fprintln(c.opts.Out, tui.StatusLine(resp.Status, resp.Stage))
	fmt.Fprintln(c.opts.Out, body)
	fmt.Fprintln(c.opts.Out)
}

// readLines pumps r line by line until EOF or stop is closed.
// A reader blocked in Read (a terminal) is only released by the next line.
func readLines(r io.Reader, stop <-chan struct{}) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case out <- scanner.Text():
			case <-stop:
				return
			}
		}
	}()
	return out
}
