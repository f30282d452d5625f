package api

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshalEnvelope(t *testing.T, status string, v any) map[string]any {
	t.Helper()
	result, err := EnvelopeTransformer(nil, status, v)
	require.NoError(t, err)

	b, err := json.Marshal(result)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestEnvelopeTransformer_Success(t *testing.T) {
	out := marshalEnvelope(t, "200", map[string]string{"name": "Home"})

	assert.Equal(t, float64(EnvelopeVersion), out["v"])
	assert.Equal(t, true, out["success"])
	assert.Equal(t, map[string]any{"name": "Home"}, out["data"])
	assert.NotContains(t, out, "error")
}

func TestEnvelopeTransformer_NilData(t *testing.T) {
	out := marshalEnvelope(t, "204", nil)

	assert.Equal(t, true, out["success"])
	assert.NotContains(t, out, "data")
}

func TestEnvelopeTransformer_APIError(t *testing.T) {
	apiErr := &APIError{
		status:  400,
		Code:    "VALIDATION",
		Message: "Circular dependency",
		Details: map[string]string{"parent": "Circular dependency"},
	}
	out := marshalEnvelope(t, "400", apiErr)

	assert.Equal(t, false, out["success"])
	assert.Equal(t, "VALIDATION", out["code"])
	assert.Equal(t, "Circular dependency", out["message"])
	assert.Equal(t, map[string]any{"parent": "Circular dependency"}, out["details"])
}

func TestEnvelopeTransformer_PlainError(t *testing.T) {
	out := marshalEnvelope(t, "500", errors.New("boom"))

	assert.Equal(t, false, out["success"])
	assert.Equal(t, "boom", out["error"])
}

func TestStatusToCode(t *testing.T) {
	tests := map[int]string{
		400: "VALIDATION",
		401: "UNAUTHORIZED",
		404: "NOT_FOUND",
		409: "CONFLICT",
		422: "VALIDATION",
		429: "RATE_LIMITED",
		500: "INTERNAL",
		503: "INTERNAL",
	}
	for status, code := range tests {
		assert.Equal(t, code, statusToCode(status), "status %d", status)
	}
}

func TestClientKey(t *testing.T) {
	assert.Equal(t, "192.0.2.1", clientKey("192.0.2.1:1234"))
	assert.Equal(t, "::1", clientKey("[::1]:80"))
	assert.Equal(t, "10.0.0.7", clientKey("10.0.0.7"))
}
