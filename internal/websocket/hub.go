package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"gym-membership-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	clusterChannel = "gym_realtime"
	adminTarget    = "admins"
)

type Hub struct {
	// Registered clients: UserID -> connections (multi-device)
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis fans messages out to the other instances. Nil means single instance.
	rdb *redis.Client

	logger logger.ILogger

	// instance id, so our own redis publishes are not delivered twice
	id string
}

type envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type clusterMessage struct {
	Origin  string          `json:"origin"`
	Target  string          `json:"target"`
	Message json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
		id:         uuid.NewString(),
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{
				"user_id": client.UserID,
				"admin":   client.IsAdmin,
			})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.UserID]) == 0 {
		delete(h.clients, client.UserID)
		h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"user_id": client.UserID})
	}
}

// Send pushes a message to every connection of the user, on every instance.
func (h *Hub) Send(userID uuid.UUID, kind string, data interface{}) {
	msg, err := json.Marshal(envelope{Type: kind, Data: data})
	if err != nil {
		h.logger.Warn("Hub", "Failed to encode realtime message", map[string]interface{}{"type": kind, "error": err.Error()})
		return
	}
	h.deliverLocal(userID.String(), msg)
	h.publish(userID.String(), msg)
}

// SendToAdmins pushes a message to every connected admin.
func (h *Hub) SendToAdmins(kind string, data interface{}) {
	msg, err := json.Marshal(envelope{Type: kind, Data: data})
	if err != nil {
		h.logger.Warn("Hub", "Failed to encode realtime message", map[string]interface{}{"type": kind, "error": err.Error()})
		return
	}
	h.deliverLocal(adminTarget, msg)
	h.publish(adminTarget, msg)
}

// ConnectedUsers is the number of distinct users with a live connection here.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) deliverLocal(target string, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if target == adminTarget {
		for _, clients := range h.clients {
			for _, c := range clients {
				if c.IsAdmin {
					h.offer(c, msg)
				}
			}
		}
		return
	}

	uid, err := uuid.Parse(target)
	if err != nil {
		return
	}
	for _, c := range h.clients[uid] {
		h.offer(c, msg)
	}
}

// offer never blocks; a slow client loses the message rather than stalling the hub.
func (h *Hub) offer(c *Client, msg []byte) {
	select {
	case c.Send <- msg:
	default:
		h.logger.Warn("Hub", "Client Send buffer full, dropping message", map[string]interface{}{"user_id": c.UserID})
	}
}

func (h *Hub) publish(target string, msg []byte) {
	if h.rdb == nil {
		return
	}
	payload, _ := json.Marshal(clusterMessage{Origin: h.id, Target: target, Message: msg})
	if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
	}
}

// subscribeToRedis delivers messages published by other instances to local clients.
func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		if payload.Origin == h.id {
			continue
		}
		h.deliverLocal(payload.Target, payload.Message)
	}
}
