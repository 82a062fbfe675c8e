package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"docmind-be/internal/model"
	"docmind-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "docmind_cluster_events"

// Hub fans persisted notifications out to connected clients. A user
// may hold several connections (multi-device); Redis pub/sub relays
// deliveries across instances when a client is connected elsewhere.
type Hub struct {
	// id distinguishes this instance on the cluster channel so its own
	// relayed messages are not delivered twice.
	id string

	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// nil when running single-instance.
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		id:         uuid.NewString(),
		clients:    make(map[uuid.UUID][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.relayFromRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Send delivers a notification to every local connection of the user
// and relays it through Redis for connections on other instances.
func (h *Hub) Send(userID uuid.UUID, notification *model.Notification) {
	data, err := json.Marshal(map[string]interface{}{
		"type": "notification",
		"data": notification,
	})
	if err != nil {
		return
	}

	h.deliverLocal(userID, data)
	h.relayToRedis(userID.String(), data)
}

// Broadcast delivers to every connected client on every instance.
func (h *Hub) Broadcast(notification *model.Notification) {
	data, err := json.Marshal(map[string]interface{}{
		"type": "notification",
		"data": notification,
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	targets := make([]uuid.UUID, 0, len(h.clients))
	for userID := range h.clients {
		targets = append(targets, userID)
	}
	h.mu.RUnlock()

	for _, userID := range targets {
		h.deliverLocal(userID, data)
	}
	h.relayToRedis("*", data)
}

func (h *Hub) deliverLocal(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	clients := append([]*Client(nil), h.clients[userID]...)
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			// Slow consumer; drop the connection rather than block the hub.
			h.logger.Warn("Hub", "Send buffer full, dropping client", map[string]interface{}{"user_id": userID})
			h.unregister <- client
		}
	}
}

type clusterEnvelope struct {
	Origin       string          `json:"origin"`
	TargetUserID string          `json:"target_user_id"`
	Message      json.RawMessage `json:"message"`
}

func (h *Hub) relayToRedis(targetUserID string, data []byte) {
	if h.rdb == nil {
		return
	}
	payload, err := json.Marshal(clusterEnvelope{Origin: h.id, TargetUserID: targetUserID, Message: data})
	if err != nil {
		return
	}
	if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Redis relay failed", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Hub) relayFromRedis() {
	pubsub := h.rdb.Subscribe(context.Background(), clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var envelope clusterEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			h.logger.Warn("Hub", "Malformed cluster message", map[string]interface{}{"error": err.Error()})
			continue
		}
		if envelope.Origin == h.id {
			continue
		}

		if envelope.TargetUserID == "*" {
			h.mu.RLock()
			targets := make([]uuid.UUID, 0, len(h.clients))
			for userID := range h.clients {
				targets = append(targets, userID)
			}
			h.mu.RUnlock()
			for _, userID := range targets {
				h.deliverLocal(userID, envelope.Message)
			}
			continue
		}

		userID, err := uuid.Parse(envelope.TargetUserID)
		if err != nil {
			continue
		}
		h.deliverLocal(userID, envelope.Message)
	}
}
