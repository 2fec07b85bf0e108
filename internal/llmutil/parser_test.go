package llmutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type block struct {
	Name     string `json:"name"`
	Selector string `json:"selector"`
}

func TestParseJSONResponse_RawObject(t *testing.T) {
	res, err := ParseJSONResponse[block](`{"name": "Sales Chart", "selector": "#sales"}`)

	require.NoError(t, err)
	assert.Equal(t, "Sales Chart", res.Name)
	assert.Equal(t, "#sales", res.Selector)
}

func TestParseJSONResponse_RawArray(t *testing.T) {
	res, err := ParseJSONResponse[[]block](`[{"name": "A", "selector": "#a"}, {"name": "B", "selector": "#b"}]`)

	require.NoError(t, err)
	require.Len(t, *res, 2)
	assert.Equal(t, "B", (*res)[1].Name)
}

func TestParseJSONResponse_MarkdownWrappedObject(t *testing.T) {
	response := "```json\n{\"name\": \"Sales Chart\", \"selector\": \"#sales\"}\n```"

	res, err := ParseJSONResponse[block](response)

	require.NoError(t, err)
	assert.Equal(t, "#sales", res.Selector)
}

func TestParseJSONResponse_MarkdownWrappedArray(t *testing.T) {
	response := "```json\n[{\"name\": \"A\", \"selector\": \"canvas\"}]\n```"

	res, err := ParseJSONResponse[[]block](response)

	require.NoError(t, err)
	require.Len(t, *res, 1)
	assert.Equal(t, "canvas", (*res)[0].Selector)
}

func TestParseJSONResponse_ConversationalText(t *testing.T) {
	response := `Sure! Here are the blocks I found: [{"name": "A", "selector": "#a"}] Let me know if you need more.`

	res, err := ParseJSONResponse[[]block](response)

	require.NoError(t, err)
	require.Len(t, *res, 1)
	assert.Equal(t, "A", (*res)[0].Name)
}

func TestParseJSONResponse_InvalidJSON(t *testing.T) {
	_, err := ParseJSONResponse[block](`{"name": `)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal LLM JSON response")
}

func TestParseJSONResponse_NoJSONAtAll(t *testing.T) {
	_, err := ParseJSONResponse[[]block]("I could not find any chart blocks on this page.")

	assert.Error(t, err)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abc...", truncateString("abcdef", 3))
}
