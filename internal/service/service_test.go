package service

import (
	"encoding/json"
	"testing"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawParams(t *testing.T, v any) *json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	raw := json.RawMessage(b)
	return &raw
}

func TestDispatchUnknownMethod(t *testing.T) {
	h := NewHandler()
	_, err := h.dispatch(&jsonrpc2.Request{Method: "nope"})
	require.Error(t, err)
}

func TestDispatchDecompileMethodMissingParams(t *testing.T) {
	h := NewHandler()
	_, err := h.decompileMethod(nil)
	require.Error(t, err)
}

func TestDispatchDecompileMethodSuccess(t *testing.T) {
	h := NewHandler()
	params := map[string]any{
		"method": map[string]any{
			"ClassName": "LMain;", "Name": "identity", "Static": true,
			"Entry": map[string]any{
				"ID": 0,
				"Instructions": []any{
					map[string]any{"Kind": 19, "Srcs": []int{0}}, // KReturn
				},
			},
			"RegistersSize": 1, "InsSize": 1,
			"ParamsType": []string{"I"}, "ReturnType": "I",
		},
	}
	result, err := h.decompileMethod(rawParams(t, params))
	require.NoError(t, err)
	assert.Empty(t, result.Error)
	assert.Equal(t, "LMain;->identity(I)I", result.AST.Triple)
}
