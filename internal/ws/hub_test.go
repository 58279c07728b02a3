package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/domain/notification"
)

func TestHub_PublishTargetsRecipient(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	alice, bob := uuid.New(), uuid.New()
	ca := NewClient(hub, nil, alice)
	cb := NewClient(hub, nil, bob)
	hub.Register(ca)
	hub.Register(cb)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	require.True(t, hub.Publish(notification.Payload{
		RecipientID: alice,
		Type:        notification.TypeNewJobMatch,
		Message:     "New job match found: SRE (Match Score: 88%)",
	}))

	select {
	case raw := <-ca.send:
		var evt Event
		require.NoError(t, json.Unmarshal(raw, &evt))
		assert.Equal(t, notification.TypeNewJobMatch, evt.Type)
		assert.Equal(t, alice, evt.Payload.RecipientID)
	case <-time.After(time.Second):
		t.Fatal("recipient did not receive the event")
	}

	select {
	case <-cb.send:
		t.Fatal("other recipient received the event")
	case <-time.After(50 * time.Millisecond):
	}

	hub.Unregister(ca)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	_, open := <-ca.send
	assert.False(t, open)
}

func TestHub_NilIsSafe(t *testing.T) {
	var hub *Hub
	assert.False(t, hub.Publish(notification.Payload{}))
	assert.Equal(t, 0, hub.ClientCount())
	assert.False(t, hub.Register(nil))
	hub.Unregister(nil)
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	alice := uuid.New()
	slow := NewClient(hub, nil, alice)
	hub.Register(slow)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	for i := 0; i <= sendBuffer; i++ {
		require.True(t, hub.SendTo(alice, []byte("{}")))
	}
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_RunClosesConnectionsOnCancel(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	c := NewClient(hub, nil, uuid.New())
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-stopped
	_, open := <-c.send
	assert.False(t, open)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		// more than the leaves buffer holds
		for i := 0; i < 300; i++ {
			hub.Unregister(NewClient(hub, nil, uuid.New()))
		}
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Unregister blocked after Run returned")
	}

	assert.False(t, hub.Register(NewClient(hub, nil, uuid.New())))
	assert.Equal(t, 0, hub.ClientCount())
}
