package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusPublishSubscribe(t *testing.T) {
	bus := NewEventBus()

	var received []*Event
	bus.Subscribe(EventRewardUnlocked, func(e *Event) error {
		received = append(received, e)
		return nil
	})

	err := bus.PublishJSON(EventRewardUnlocked, ReferralEventPayload{UserID: 42, ReferralCount: 3})
	require.NoError(t, err)

	require.Len(t, received, 1)
	assert.Equal(t, EventRewardUnlocked, received[0].Type)
	assert.False(t, received[0].CreatedAt.IsZero())

	var payload ReferralEventPayload
	require.NoError(t, json.Unmarshal(received[0].Payload, &payload))
	assert.Equal(t, int64(42), payload.UserID)
	assert.Equal(t, int64(3), payload.ReferralCount)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()

	count := 0
	bus.Subscribe(EventReferralRecorded, func(*Event) error { count++; return nil })
	bus.Subscribe(EventReferralRecorded, func(*Event) error { count++; return nil })
	bus.Subscribe(EventUserRegistered, func(*Event) error { count += 100; return nil })

	require.NoError(t, bus.PublishJSON(EventReferralRecorded, ReferralEventPayload{UserID: 1}))
	assert.Equal(t, 2, count)
}

func TestEventBusNilSafe(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventRewardReset, nil))
}
