package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnavBalyan/concierge/pkg/domain"
)

func TestRenderer_Plain(t *testing.T) {
	out, err := NewRenderer(false, 80)("## Stage: browse")
	require.NoError(t, err)
	assert.Equal(t, "## Stage: browse", out)
}

func TestRenderer_Styled(t *testing.T) {
	out, err := NewRenderer(true, 60)("## Stage: browse\n\n- **add_to_cart**: Add a product")
	require.NoError(t, err)
	assert.Contains(t, out, "browse")
	assert.Contains(t, out, "add_to_cart")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "version 1.2.3")
}

func TestStatusLine(t *testing.T) {
	for _, s := range []domain.Status{domain.StatusOK, domain.StatusNeedsInput, domain.StatusError} {
		line := StatusLine(s, "done")
		assert.Contains(t, line, string(s))
		assert.Contains(t, line, "done")
	}
}
