package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnavBalyan/concierge"
	"github.com/ArnavBalyan/concierge/internal/demo"
	"github.com/ArnavBalyan/concierge/pkg/domain"
)

func demoEngine(t *testing.T) *concierge.Engine {
	t.Helper()
	eng := concierge.New()
	require.NoError(t, eng.Register(demo.Workflow()))
	return eng
}

func TestRunChat_Text(t *testing.T) {
	input := strings.Join([]string{
		"search query=grinder",
		"go to select",
		"add product_id=p-101",
		"bogus words here",
		"set_payment method=card",
		"enter checkout",
		"complete",
		"quit",
		"describe",
	}, "\n")
	var out bytes.Buffer

	err := RunChat(context.Background(), demoEngine(t), ChatOptions{
		Workflow: "shop",
		In:       strings.NewReader(input),
		Out:      &out,
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, ">>> Session ")
	assert.Contains(t, text, "## Stage: browse")
	assert.Contains(t, text, "Task search_products completed")
	assert.Contains(t, text, "Moved from browse to select.")
	assert.Contains(t, text, `"added":"Burr grinder"`)
	assert.Contains(t, text, "? no matching action")
	assert.Contains(t, text, "Task complete_purchase completed")
	assert.Contains(t, text, "Session terminated.")
	// Input after quit is never read.
	assert.Equal(t, 1, strings.Count(text, "## Stage: browse"))
}

func TestRunChat_JSON(t *testing.T) {
	input := strings.Join([]string{
		`{"action":"invoke","task":"search_products","arguments":{"query":"kettle"}}`,
		`not json`,
		`{"action":"invoke","task":"complete_purchase"}`,
		`{"action":"terminate_session","reason":"done"}`,
	}, "\n")
	var out bytes.Buffer

	err := RunChat(context.Background(), demoEngine(t), ChatOptions{
		Workflow: "shop",
		JSON:     true,
		In:       strings.NewReader(input),
		Out:      &out,
	})
	require.NoError(t, err)

	var replies []map[string]any
	dec := json.NewDecoder(&out)
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		replies = append(replies, m)
	}
	require.Len(t, replies, 5)
	assert.Equal(t, "ok", replies[0]["status"]) // handshake
	assert.Equal(t, "ok", replies[1]["status"])
	assert.Equal(t, domain.CodeInvalidRequest, replies[2]["error"].(map[string]any)["code"])
	assert.Equal(t, domain.CodeTaskNotAvailable, replies[3]["error"].(map[string]any)["code"])
	assert.Equal(t, true, replies[4]["terminated"])
}

func TestRunChat_UnknownWorkflow(t *testing.T) {
	err := RunChat(context.Background(), demoEngine(t), ChatOptions{
		Workflow: "bank",
		In:       strings.NewReader(""),
		Out:      &bytes.Buffer{},
	})
	var unknown *domain.UnknownWorkflowError
	assert.ErrorAs(t, err, &unknown)
}

func TestRunChat_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// A reader that never yields a line.
	r, w := io.Pipe()
	defer w.Close()
	time.AfterFunc(50*time.Millisecond, cancel)

	err := RunChat(ctx, demoEngine(t), ChatOptions{Workflow: "shop", In: r, Out: &bytes.Buffer{}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, HandleExecutionError(err))
}
