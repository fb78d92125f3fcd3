package messaging

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/events"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/realtime"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/storage"
)

type Message struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"order_id"`
	SenderID    string     `json:"sender_id"`
	RecipientID string     `json:"recipient_id"`
	Content     string     `json:"content"`
	FileURL     *string    `json:"file_url,omitempty"`
	IsSystem    bool       `json:"is_system"`
	CreatedAt   time.Time  `json:"created_at"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}

// MessageEvent is the payload published when a message lands.
type MessageEvent struct {
	MessageID   string `json:"message_id"`
	OrderID     string `json:"order_id"`
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
}

type Handler struct {
	pool  *pgxpool.Pool
	log   zerolog.Logger
	hub   *realtime.Hub
	bus   *events.Bus
	store *storage.Store
}

func NewHandler(pool *pgxpool.Pool, log zerolog.Logger, hub *realtime.Hub, bus *events.Bus, store *storage.Store) *Handler {
	return &Handler{pool: pool, log: log.With().Str("component", "messaging").Logger(), hub: hub, bus: bus, store: store}
}

// participants resolves the counterpart in an order thread, failing when
// the caller is not on either side.
func (h *Handler) participants(ctx context.Context, orderID, userID string) (recipient string, err error) {
	var buyerID, sellerID string
	if err := h.pool.QueryRow(ctx,
		`SELECT buyer_id, seller_id FROM orders WHERE id = $1`, orderID,
	).Scan(&buyerID, &sellerID); err != nil {
		return "", err
	}
	switch userID {
	case buyerID:
		return sellerID, nil
	case sellerID:
		return buyerID, nil
	}
	return "", errNotParticipant
}

var errNotParticipant = errors.New("not a participant in this order")

// signedFileURL turns a stored attachment reference into a downloadable
// link. Rows keep the bucket-relative object path so links never go
// stale; each read gets a fresh signature. Absolute URLs (legacy rows,
// external links) pass through untouched.
func (h *Handler) signedFileURL(ref *string) *string {
	if ref == nil || strings.Contains(*ref, "://") {
		return ref
	}
	url, err := h.store.SignedURL(storage.BucketOrderDeliveries, *ref, storage.DeliveryLinkTTL)
	if err != nil {
		return ref
	}
	return &url
}

// Send posts a message in an order thread. A file_url from a prior
// attachment upload may ride along with or instead of text.
func (h *Handler) Send(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	orderID := c.Param("id")
	var req struct {
		Content string `json:"content"`
		FileURL string `json:"file_url"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	if req.Content == "" && req.FileURL == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content or file_url is required"})
	}

	ctx := c.Request().Context()
	recipientID, err := h.participants(ctx, orderID, userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found or not yours"})
	}

	var fileURL *string
	if req.FileURL != "" {
		fileURL = &req.FileURL
	}

	var (
		msgID     string
		createdAt time.Time
	)
	err = h.pool.QueryRow(ctx, `
		INSERT INTO messages (order_id, sender_id, recipient_id, content, file_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, orderID, userID, recipientID, req.Content, fileURL).Scan(&msgID, &createdAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send message"})
	}

	msg := Message{
		ID: msgID, OrderID: orderID, SenderID: userID, RecipientID: recipientID,
		Content: req.Content, FileURL: h.signedFileURL(fileURL), CreatedAt: createdAt,
	}
	h.hub.Publish(ctx, realtime.OrderTopic(orderID), realtime.Event{Type: "message_new", Data: msg})
	_ = h.bus.PublishJSON(events.EventMessageReceived, MessageEvent{
		MessageID: msgID, OrderID: orderID, SenderID: userID, RecipientID: recipientID, Content: req.Content,
	})

	return c.JSON(http.StatusCreated, msg)
}

// Attach uploads a chat attachment. The returned file_path is what a
// subsequent Send references; url is a signed link for immediate preview.
func (h *Handler) Attach(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	orderID := c.Param("id")
	if _, err := h.participants(c.Request().Context(), orderID, userID); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found or not yours"})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing file"})
	}
	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable file"})
	}
	defer src.Close()

	objectPath, _, err := h.store.Save(storage.BucketOrderDeliveries, file.Filename, src)
	if err != nil {
		h.log.Error().Err(err).Msg("attachment upload failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"file_path": objectPath,
		"url":       *h.signedFileURL(&objectPath),
	})
}

// List returns an order's conversation, optionally only entries after the
// since timestamp for incremental fetches.
func (h *Handler) List(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	orderID := c.Param("id")
	ctx := c.Request().Context()
	if _, err := h.participants(ctx, orderID, userID); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found or not yours"})
	}

	since := time.Time{}
	if v := c.QueryParam("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "since must be RFC3339"})
		}
		since = t
	}

	rows, err := h.pool.Query(ctx, `
		SELECT id, order_id, sender_id, recipient_id, content, file_url, is_system, created_at, read_at
		FROM messages
		WHERE order_id = $1 AND created_at > $2
		ORDER BY created_at ASC
	`, orderID, since)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list messages"})
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.OrderID, &m.SenderID, &m.RecipientID, &m.Content,
			&m.FileURL, &m.IsSystem, &m.CreatedAt, &m.ReadAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		m.FileURL = h.signedFileURL(m.FileURL)
		msgs = append(msgs, m)
	}

	return c.JSON(http.StatusOK, echo.Map{"messages": msgs})
}

// Conversations lists the caller's order threads with their latest message
// and unread count.
func (h *Handler) Conversations(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := h.pool.Query(c.Request().Context(), `
		SELECT DISTINCT ON (m.order_id)
		       m.order_id, o.service_title, m.content, m.created_at,
		       (SELECT COUNT(*) FROM messages u
		        WHERE u.order_id = m.order_id AND u.recipient_id = $1 AND u.read_at IS NULL)
		FROM messages m
		JOIN orders o ON o.id = m.order_id
		WHERE m.sender_id = $1 OR m.recipient_id = $1
		ORDER BY m.order_id, m.created_at DESC
	`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list conversations"})
	}
	defer rows.Close()

	type conversation struct {
		OrderID      string    `json:"order_id"`
		ServiceTitle string    `json:"service_title"`
		LastMessage  string    `json:"last_message"`
		LastAt       time.Time `json:"last_at"`
		Unread       int64     `json:"unread"`
	}

	var convs []conversation
	for rows.Next() {
		var cv conversation
		if err := rows.Scan(&cv.OrderID, &cv.ServiceTitle, &cv.LastMessage, &cv.LastAt, &cv.Unread); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		convs = append(convs, cv)
	}

	return c.JSON(http.StatusOK, echo.Map{"conversations": convs})
}

// MarkRead stamps a message as read by its recipient and pushes the read
// receipt to the order room.
func (h *Handler) MarkRead(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	orderID := c.Param("id")
	msgID := c.Param("messageID")

	var readAt time.Time
	err := h.pool.QueryRow(c.Request().Context(), `
		UPDATE messages SET read_at = NOW()
		WHERE id = $1 AND order_id = $2 AND recipient_id = $3 AND read_at IS NULL
		RETURNING read_at
	`, msgID, orderID, userID).Scan(&readAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusConflict, echo.Map{"error": "message not found, not yours, or already read"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to mark read"})
	}

	h.hub.Publish(c.Request().Context(), realtime.OrderTopic(orderID), realtime.Event{
		Type: "message_read",
		Data: echo.Map{"message_id": msgID, "order_id": orderID, "user_id": userID, "read_at": readAt},
	})

	return c.JSON(http.StatusOK, echo.Map{"message_id": msgID, "read_at": readAt})
}

// OrderWS subscribes a participant to the order room's realtime channel.
func (h *Handler) OrderWS(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	orderID := c.Param("id")
	if _, err := h.participants(c.Request().Context(), orderID, userID); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found or not yours"})
	}

	return h.hub.Serve(c, realtime.OrderTopic(orderID))
}
