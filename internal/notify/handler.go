package notify

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/realtime"
)

type Handler struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
	hub  *realtime.Hub
}

func NewHandler(pool *pgxpool.Pool, log zerolog.Logger, hub *realtime.Hub) *Handler {
	return &Handler{pool: pool, log: log.With().Str("component", "notify").Logger(), hub: hub}
}

// List returns the caller's notifications, newest first.
func (h *Handler) List(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := h.pool.Query(c.Request().Context(), `
		SELECT id, user_id, type, title, COALESCE(message, ''), COALESCE(link, ''), read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 100
	`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list notifications"})
	}
	defer rows.Close()

	var notifs []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Link, &n.Read, &n.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		notifs = append(notifs, n)
	}

	var unread int64
	_ = h.pool.QueryRow(c.Request().Context(),
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT read`, userID).Scan(&unread)

	return c.JSON(http.StatusOK, echo.Map{"notifications": notifs, "unread": unread})
}

// MarkRead flags one notification as read.
func (h *Handler) MarkRead(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	res, err := h.pool.Exec(c.Request().Context(),
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, c.Param("id"), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to mark read"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "notification not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "marked read"})
}

// MarkAllRead clears the caller's unread badge.
func (h *Handler) MarkAllRead(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	if _, err := h.pool.Exec(c.Request().Context(),
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to mark all read"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "all marked read"})
}

// UserWS subscribes the caller to their notification push channel.
func (h *Handler) UserWS(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	return h.hub.Serve(c, realtime.UserTopic(userID))
}
