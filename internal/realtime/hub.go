package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/metrics"
)

// redisPrefix namespaces the fan-out channels shared between instances.
const redisPrefix = "rt:"

// Event is a server-push frame sent to websocket subscribers.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub tracks websocket subscribers per topic. Topics follow the
// "order:<id>" and "user:<id>" convention. With a redis client attached,
// published events fan out across instances via pub/sub.
type Hub struct {
	log zerolog.Logger
	mtr *metrics.Metrics
	rdb *redis.Client

	mu     sync.RWMutex
	topics map[string]map[*websocket.Conn]bool

	upgrader websocket.Upgrader
}

func NewHub(rdb *redis.Client, log zerolog.Logger, mtr *metrics.Metrics) *Hub {
	h := &Hub{
		log:    log.With().Str("component", "realtime").Logger(),
		mtr:    mtr,
		rdb:    rdb,
		topics: make(map[string]map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	if rdb != nil {
		go h.consume(context.Background())
	}
	return h
}

// OrderTopic and UserTopic build the canonical topic names.
func OrderTopic(orderID string) string { return "order:" + orderID }
func UserTopic(userID string) string { return "user:" + userID }

// Publish delivers an event to a topic's subscribers, across all instances
// when redis is attached.
func (h *Hub) Publish(ctx context.Context, topic string, evt Event) {
	if h == nil {
		return
	}
	if h.rdb != nil {
		payload, err := json.Marshal(evt)
		if err != nil {
			return
		}
		if err := h.rdb.Publish(ctx, redisPrefix+topic, payload).Err(); err != nil {
			h.log.Warn().Err(err).Str("topic", topic).Msg("redis publish failed, delivering locally")
			h.broadcast(topic, evt)
		}
		return
	}
	h.broadcast(topic, evt)
}

func (h *Hub) consume(ctx context.Context) {
	sub := h.rdb.PSubscribe(ctx, redisPrefix+"*")
	defer sub.Close()

	for msg := range sub.Channel() {
		topic := strings.TrimPrefix(msg.Channel, redisPrefix)
		var evt Event
		if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
			continue
		}
		h.broadcast(topic, evt)
	}
}

func (h *Hub) broadcast(topic string, evt Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.topics[topic] {
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}
}

func (h *Hub) register(topic string, conn *websocket.Conn) {
	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*websocket.Conn]bool)
	}
	h.topics[topic][conn] = true
	h.mu.Unlock()
	h.mtr.WSConnections.Inc()
}

func (h *Hub) unregister(topic string, conn *websocket.Conn) {
	h.mu.Lock()
	if subs, ok := h.topics[topic]; ok {
		delete(subs, conn)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	h.mu.Unlock()
	h.mtr.WSConnections.Dec()
}

// Serve upgrades the request and keeps the connection subscribed to the
// topic until the client goes away. The protocol is server push only.
func (h *Hub) Serve(c echo.Context, topic string) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	h.register(topic, conn)
	defer func() {
		h.unregister(topic, conn)
		_ = conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

// SubscriberCount is used by tests and the ops surface.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
