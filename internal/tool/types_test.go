package tool

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclare_ClosedSchema(t *testing.T) {
	mt := &mockTool{name: "web_search", params: []Parameter{
		{Name: "query", Type: TypeString, Description: "Search query", Required: true},
		{Name: "numResults", Type: TypeInteger, Description: "How many"},
		{Name: "type", Type: TypeString, Enum: []string{"fast", "auto", "deep"}},
		{Name: "includeDomains", Type: TypeArray},
		{Name: "filter", Type: TypeObject, Properties: []Parameter{
			{Name: "after", Type: TypeString, Required: true},
		}},
	}}

	decl := Declare(mt)
	raw, err := json.Marshal(decl)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	schema := got["input_schema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.Equal(t, []any{"query"}, schema["required"])

	props := schema["properties"].(map[string]any)
	assert.Equal(t, []any{"fast", "auto", "deep"}, props["type"].(map[string]any)["enum"])
	assert.Equal(t, "string", props["includeDomains"].(map[string]any)["items"].(map[string]any)["type"])

	nested := props["filter"].(map[string]any)
	assert.Equal(t, false, nested["additionalProperties"])
	assert.Equal(t, []any{"after"}, nested["required"])
}

func TestDeclare_NoParameters(t *testing.T) {
	decl := Declare(&mockTool{name: "ping"})
	raw, err := json.Marshal(decl.InputSchema)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object","additionalProperties":false}`, string(raw))
}
