package compliance

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField_UnmarshalJSON(t *testing.T) {
	var req struct {
		Status   Field[string]  `json:"status"`
		Remarks  Field[string]  `json:"remarks"`
		ReturnID Field[*string] `json:"return_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"Filed","return_id":null}`), &req))

	assert.Equal(t, SetTo("Filed"), req.Status)
	assert.False(t, req.Remarks.Set)
	assert.True(t, req.ReturnID.Set, "explicit null marks the field set")
	assert.True(t, req.ReturnID.Null)
	assert.Nil(t, req.ReturnID.Value)
}

func TestField_NullVersusZero(t *testing.T) {
	var req struct {
		Version Field[int64] `json:"version"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"version": null}`), &req))
	assert.True(t, req.Version.Set)
	assert.True(t, req.Version.Null)

	require.NoError(t, json.Unmarshal([]byte(`{"version":0}`), &req))
	assert.True(t, req.Version.Set)
	assert.False(t, req.Version.Null)
	assert.Zero(t, req.Version.Value)
}

func TestField_Helpers(t *testing.T) {
	fields := map[string]interface{}{}
	SetTo("x").Put(fields, "a")
	Keep[string]().Put(fields, "b")
	assert.Equal(t, map[string]interface{}{"a": "x"}, fields)

	assert.Equal(t, "fallback", Keep[string]().Or("fallback"))
	assert.Equal(t, "v", SetTo("v").Or("fallback"))

	v, ok := Keep[int64]().Get()
	assert.False(t, ok)
	assert.Zero(t, v)
}
