package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/loreline/backend/internal/models"
)

func newTestHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client, 1),
		unregister: make(chan *Client, 1),
	}
}

func newTestClient(h *Hub) *Client {
	c := &Client{hub: h, userID: uuid.New(), send: make(chan []byte, 4)}
	h.clients[c] = true
	return c
}

func recvEvent(t *testing.T, c *Client) models.WSMessage {
	t.Helper()
	select {
	case b := <-c.send:
		var got models.WSMessage
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("failed to decode event: %v", err)
		}
		return got
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for event")
		return models.WSMessage{}
	}
}

func TestHubPublishReachesSubscribersOnly(t *testing.T) {
	h := newTestHub()
	channelID := uuid.New()

	subscriber := newTestClient(h)
	bystander := newTestClient(h)

	h.Subscribe(subscriber, channelID)

	event := models.WSMessage{Event: models.EventMessageReceive, Payload: map[string]string{"content": "hello world"}}
	if err := h.Publish(channelID, event); err != nil {
		t.Fatalf("Publish error: %v", err)
	}

	got := recvEvent(t, subscriber)
	if got.Event != models.EventMessageReceive {
		t.Fatalf("unexpected event: %s", got.Event)
	}

	select {
	case b := <-bystander.send:
		t.Fatalf("bystander should not receive channel events, got %s", b)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubMultiChannelSubscriptions(t *testing.T) {
	h := newTestHub()
	chA := uuid.New()
	chB := uuid.New()

	client := newTestClient(h)
	h.Subscribe(client, chA)
	h.Subscribe(client, chB)

	// Leaving one channel must not affect the other
	h.Unsubscribe(client, chA)

	if err := h.Publish(chA, models.WSMessage{Event: models.EventMessageReceive}); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	select {
	case <-client.send:
		t.Fatal("should not receive events for a left channel")
	case <-time.After(50 * time.Millisecond):
	}

	if err := h.Publish(chB, models.WSMessage{Event: models.EventMessageReceive}); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	recvEvent(t, client)
}

func TestHubPublishGlobalReachesEveryone(t *testing.T) {
	h := newTestHub()
	c1 := newTestClient(h)
	c2 := newTestClient(h)
	h.Subscribe(c1, uuid.New())

	mutedUser := uuid.New()
	event := models.WSMessage{
		Event:   models.EventUserMuted,
		Payload: models.WSUserMutedPayload{UserID: mutedUser, MuteExpiresAt: time.Now().Add(time.Hour)},
	}
	if err := h.PublishGlobal(event); err != nil {
		t.Fatalf("PublishGlobal error: %v", err)
	}

	for _, c := range []*Client{c1, c2} {
		got := recvEvent(t, c)
		if got.Event != models.EventUserMuted {
			t.Fatalf("unexpected event: %s", got.Event)
		}
	}
}

func TestHubPublishOrdering(t *testing.T) {
	h := newTestHub()
	channelID := uuid.New()
	client := &Client{hub: h, userID: uuid.New(), send: make(chan []byte, 16)}
	h.clients[client] = true
	h.Subscribe(client, channelID)

	for i := 0; i < 5; i++ {
		if err := h.Publish(channelID, models.WSMessage{Event: models.EventMessageReceive, Payload: i}); err != nil {
			t.Fatalf("Publish error: %v", err)
		}
	}

	for i := 0; i < 5; i++ {
		got := recvEvent(t, client)
		var n int
		b, _ := json.Marshal(got.Payload)
		json.Unmarshal(b, &n)
		if n != i {
			t.Fatalf("expected event %d in order, got %d", i, n)
		}
	}
}

func TestHubSubscriberCount(t *testing.T) {
	h := newTestHub()
	channelID := uuid.New()

	c1 := newTestClient(h)
	c2 := newTestClient(h)
	h.Subscribe(c1, channelID)
	h.Subscribe(c2, channelID)

	if n := h.SubscriberCount(channelID); n != 2 {
		t.Fatalf("expected 2 subscribers, got %d", n)
	}

	h.Unsubscribe(c1, channelID)
	if n := h.SubscriberCount(channelID); n != 1 {
		t.Fatalf("expected 1 subscriber, got %d", n)
	}
}
