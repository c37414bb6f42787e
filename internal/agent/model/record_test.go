package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutingInfoOnlyOnAssistant(t *testing.T) {
	for _, r := range []SessionRecord{
		NewUserRecord("t1", "hello"),
		NewOptimizerRecord("t1", "hi"),
		NewSystemRecord("t1", "Error"),
	} {
		_, ok := r.RoutingInfo()
		assert.False(t, ok, r.Role())
	}

	a := NewAssistantRecord("t1", "answer", RoutingInfo{Location: "Montreal, Canada", WaterSavedML: 10})
	info, ok := a.RoutingInfo()
	require.True(t, ok)
	assert.Equal(t, RoleAssistant, a.Role())
	assert.Equal(t, 10.0, info.WaterSavedML)
}

func TestOptimizerRecordContent(t *testing.T) {
	r := NewOptimizerRecord("t1", "Recipe for steak.")
	assert.Equal(t, `⚡ Optimized: "Recipe for steak."`, r.Content())
}

func TestSessionRecordJSON(t *testing.T) {
	a := NewAssistantRecord("t9", "answer", RoutingInfo{Location: "Eemshaven, Netherlands", Logic: "colder", WaterSavedML: 3.5, IsEstimate: true})
	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"routing_info":{"location":"Eemshaven, Netherlands"`)

	var back SessionRecord
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, a.Role(), back.Role())
	assert.Equal(t, a.Content(), back.Content())
	assert.Equal(t, a.TurnID(), back.TurnID())
	info, ok := back.RoutingInfo()
	require.True(t, ok)
	assert.True(t, info.IsEstimate)
}

func TestSessionRecordJSONRejectsBrokenInvariant(t *testing.T) {
	var r SessionRecord
	err := json.Unmarshal([]byte(`{"role":"user","content":"x","routing_info":{"location":"a"}}`), &r)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"role":"robot","content":"x"}`), &r)
	assert.Error(t, err)
}
