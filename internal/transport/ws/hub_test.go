package ws

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Exercises the hub from several goroutines at once the way production does:
// the run loop churning connects/disconnects while request goroutines push
// per-user, presence and conversation sends. Run with -race.
func TestHubConcurrentSends(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	evt, err := NewEvent(EventTypePong, nil, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c := NewClient(hub, nil, uuid.New(), nil)
				hub.register <- c

				hub.BroadcastToUser(c.userID, evt)
				hub.broadcastPresence(c.userID, "online")
				hub.BroadcastToConversation(uuid.New(), evt, nil)

				hub.unregister <- c
			}
		}()
	}
	wg.Wait()
}

func TestHubBroadcastToUserAfterDisconnect(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	evt, err := NewEvent(EventTypePong, nil, nil)
	require.NoError(t, err)

	c := NewClient(hub, nil, uuid.New(), nil)
	hub.register <- c
	hub.unregister <- c

	// A send racing the disconnect teardown must not hit a closed channel.
	hub.BroadcastToUser(c.userID, evt)
}
