package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Unmarshal(t *testing.T) {
	registry := NewRegistry()
	registry.Register(EventRequestDenied, func() Event { return &RequestDenied{} })

	raw := RawEvent{
		EventType: EventRequestDenied,
		Payload:   `{"type":"request.denied","entity_type":"request","entity_id":550,"occurred_at":"2024-01-01T00:00:00Z","request_id":"r1","media_type":"movie","title":"Fight Club","requested_by":"alice","from":"pending","to":"denied","denied_by":"admin","reason":"not in catalogue policy"}`,
	}

	event, err := registry.Unmarshal(raw)
	require.NoError(t, err)

	denied, ok := event.(*RequestDenied)
	require.True(t, ok)
	assert.Equal(t, int64(550), denied.EntityID())
	assert.Equal(t, "r1", denied.RequestID)
	assert.Equal(t, "admin", denied.DeniedBy)
	assert.Equal(t, "not in catalogue policy", denied.Reason)
}

func TestRegistry_UnmarshalUnknownType(t *testing.T) {
	_, err := NewRegistry().Unmarshal(RawEvent{EventType: "unknown.event", Payload: `{}`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestRegistry_UnmarshalInvalidJSON(t *testing.T) {
	registry := NewRegistry()
	registry.Register(EventRequestFailed, func() Event { return &RequestFailed{} })

	_, err := registry.Unmarshal(RawEvent{EventType: EventRequestFailed, Payload: `{invalid json`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal event payload")
}

func TestDefaultRegistry_RoundTripsLog(t *testing.T) {
	log := NewEventLog(setupTestDB(t))
	ctx := context.Background()

	ruleID := int64(3)
	e := created("req-9", 603)
	e.AutoApproved = true
	e.ApprovalRuleID = &ruleID
	_, err := log.Append(ctx, e)
	require.NoError(t, err)

	raws, err := log.ForRequest(ctx, "req-9")
	require.NoError(t, err)
	require.Len(t, raws, 1)

	got, err := DefaultRegistry().Unmarshal(raws[0])
	require.NoError(t, err)
	c, ok := got.(*RequestCreated)
	require.True(t, ok)
	assert.True(t, c.AutoApproved)
	require.NotNil(t, c.ApprovalRuleID)
	assert.Equal(t, int64(3), *c.ApprovalRuleID)
}

func TestDefaultRegistry_CoversRequestTypes(t *testing.T) {
	r := DefaultRegistry()
	for _, typ := range RequestTypes {
		e, err := r.Unmarshal(RawEvent{EventType: typ, Payload: `{"request_id":"x"}`})
		require.NoError(t, err, typ)
		assert.Equal(t, "x", e.(RequestEvent).Info().RequestID)
	}
}
