package stats

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type Handler struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewHandler(pool *pgxpool.Pool, log zerolog.Logger) *Handler {
	return &Handler{pool: pool, log: log.With().Str("component", "stats").Logger()}
}

type chartPoint struct {
	Day   string `json:"day"`
	Total int64  `json:"total"`
}

type activityEntry struct {
	OrderID      string    `json:"order_id"`
	ServiceTitle string    `json:"service_title"`
	Status       string    `json:"status"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Dashboard aggregates the professional dashboard's headline numbers in
// one response.
func (h *Handler) Dashboard(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx := c.Request().Context()

	var (
		totalEarnings     int64
		totalSales        int64
		activeClients     int64
		newProjectsWeek   int64
		pendingBookings   int64
		completedServices int64
	)
	err := h.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(o.price) FILTER (WHERE o.status = 'completed'), 0),
			COUNT(*) FILTER (WHERE o.status = 'completed'),
			COUNT(DISTINCT o.buyer_id) FILTER (WHERE o.status IN ('active', 'delivered')),
			COUNT(*) FILTER (WHERE o.created_at > NOW() - INTERVAL '7 days'),
			(SELECT COUNT(*) FROM bookings b
			 JOIN companies co ON co.id = b.company_id
			 WHERE co.profile_id = $1 AND b.status = 'pending'),
			(SELECT COUNT(*) FROM bookings b
			 JOIN companies co ON co.id = b.company_id
			 WHERE co.profile_id = $1 AND b.status = 'completed')
		FROM orders o
		WHERE o.seller_id = $1
	`, userID).Scan(&totalEarnings, &totalSales, &activeClients, &newProjectsWeek, &pendingBookings, &completedServices)
	if err != nil {
		h.log.Error().Err(err).Msg("dashboard aggregate failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute metrics"})
	}

	var avgTicket int64
	if totalSales > 0 {
		avgTicket = totalEarnings / totalSales
	}

	// Last 30 days of completed sales for the chart.
	chartRows, err := h.pool.Query(ctx, `
		SELECT to_char(o.updated_at::date, 'YYYY-MM-DD'), COALESCE(SUM(o.price), 0)
		FROM orders o
		WHERE o.seller_id = $1 AND o.status = 'completed' AND o.updated_at > NOW() - INTERVAL '30 days'
		GROUP BY o.updated_at::date
		ORDER BY o.updated_at::date
	`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute chart"})
	}
	defer chartRows.Close()

	var chart []chartPoint
	for chartRows.Next() {
		var p chartPoint
		if err := chartRows.Scan(&p.Day, &p.Total); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		chart = append(chart, p)
	}

	actRows, err := h.pool.Query(ctx, `
		SELECT id, service_title, status, updated_at
		FROM orders
		WHERE seller_id = $1
		ORDER BY updated_at DESC
		LIMIT 10
	`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load activity"})
	}
	defer actRows.Close()

	var activity []activityEntry
	for actRows.Next() {
		var a activityEntry
		if err := actRows.Scan(&a.OrderID, &a.ServiceTitle, &a.Status, &a.UpdatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		activity = append(activity, a)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_earnings":     totalEarnings,
		"total_sales_count":  totalSales,
		"active_clients":     activeClients,
		"new_projects_week":  newProjectsWeek,
		"pending_bookings":   pendingBookings,
		"completed_services": completedServices,
		"avg_ticket":         avgTicket,
		"sales_chart":        chart,
		"recent_activity":    activity,
	})
}

// Alerts returns the small counters shown next to the dashboard menu:
// bookings for today, unread order messages and open quote requests.
func (h *Handler) Alerts(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var (
		todayBookings  int64
		unreadMessages int64
		openQuotes     int64
	)
	err := h.pool.QueryRow(c.Request().Context(), `
		SELECT
			(SELECT COUNT(*) FROM bookings b
			 JOIN companies co ON co.id = b.company_id
			 WHERE co.profile_id = $1 AND b.booking_date = CURRENT_DATE
			   AND b.status IN ('pending', 'confirmed')),
			(SELECT COUNT(*) FROM messages m
			 JOIN orders o ON o.id = m.order_id
			 WHERE (o.buyer_id = $1 OR o.seller_id = $1)
			   AND m.sender_id <> $1 AND m.read_at IS NULL),
			(SELECT COUNT(*) FROM quotes q
			 WHERE q.status = 'open'
			   AND (q.category IS NULL OR q.category IN (
			       SELECT co.category FROM companies co WHERE co.profile_id = $1)))
	`, userID).Scan(&todayBookings, &unreadMessages, &openQuotes)
	if err != nil {
		h.log.Error().Err(err).Msg("alert counters failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute alerts"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"today_bookings":  todayBookings,
		"unread_messages": unreadMessages,
		"open_quotes":     openQuotes,
	})
}

// SellerLevel returns the caller's level progression snapshot.
func (h *Handler) SellerLevel(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var (
		completed int
		rating    float64
	)
	err := h.pool.QueryRow(c.Request().Context(), `
		SELECT COALESCE(total_completed_orders, 0), COALESCE(average_rating, 0)
		FROM seller_stats WHERE seller_id = $1
	`, userID).Scan(&completed, &rating)
	if err != nil {
		// No stats row yet means a brand-new seller.
		completed, rating = 0, 0
	}

	level, toNext := LevelFor(completed, rating)

	return c.JSON(http.StatusOK, echo.Map{
		"total_completed_orders": completed,
		"average_rating":         rating,
		"current_level":          level,
		"orders_to_next_level":   toNext,
	})
}
