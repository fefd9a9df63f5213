package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"gym-membership-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func connect(t *testing.T, h *Hub, userID uuid.UUID, admin bool) *Client {
	t.Helper()
	c := &Client{Hub: h, UserID: userID, IsAdmin: admin, Send: make(chan []byte, 4)}
	h.register <- c
	return c
}

func receive(t *testing.T, c *Client) envelope {
	t.Helper()
	select {
	case raw := <-c.Send:
		var env envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return envelope{}
	}
}

func assertNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("unexpected message %s", raw)
	default:
	}
}

func TestHub_SendTargetsUserDevices(t *testing.T) {
	h := startHub(t)
	user := uuid.New()
	phone := connect(t, h, user, false)
	laptop := connect(t, h, user, false)
	other := connect(t, h, uuid.New(), false)

	require.Eventually(t, func() bool { return h.ConnectedUsers() == 2 }, time.Second, 5*time.Millisecond)

	h.Send(user, "notification", map[string]string{"title": "Grace period started"})

	assert.Equal(t, "notification", receive(t, phone).Type)
	assert.Equal(t, "notification", receive(t, laptop).Type)
	assertNothing(t, other)
}

func TestHub_SendToAdminsSkipsMembers(t *testing.T) {
	h := startHub(t)
	admin := connect(t, h, uuid.New(), true)
	member := connect(t, h, uuid.New(), false)
	require.Eventually(t, func() bool { return h.ConnectedUsers() == 2 }, time.Second, 5*time.Millisecond)

	h.SendToAdmins("trainer_renewal_approved", map[string]int64{"membership_id": 7})

	env := receive(t, admin)
	assert.Equal(t, "trainer_renewal_approved", env.Type)
	assertNothing(t, member)
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	h := startHub(t)
	user := uuid.New()
	c := connect(t, h, user, false)
	require.Eventually(t, func() bool { return h.ConnectedUsers() == 1 }, time.Second, 5*time.Millisecond)

	for i := 0; i < cap(c.Send)+3; i++ {
		h.Send(user, "notification", i)
	}
	assert.Len(t, c.Send, cap(c.Send))
}

func TestHub_UnregisterRemovesUser(t *testing.T) {
	h := startHub(t)
	c := connect(t, h, uuid.New(), false)
	require.Eventually(t, func() bool { return h.ConnectedUsers() == 1 }, time.Second, 5*time.Millisecond)

	h.unregister <- c
	require.Eventually(t, func() bool { return h.ConnectedUsers() == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-c.Send
	assert.False(t, open)
}
