package review

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Review rows are written by order completion; this package serves them
// and lets sellers reply.
type Review struct {
	ID           string    `json:"id"`
	OrderID      string    `json:"order_id"`
	CompanyID    string    `json:"company_id"`
	ReviewerID   string    `json:"reviewer_id"`
	ReviewerName string    `json:"reviewer_name,omitempty"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment,omitempty"`
	SellerReply  string    `json:"seller_reply,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Handler struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewHandler(pool *pgxpool.Pool, log zerolog.Logger) *Handler {
	return &Handler{pool: pool, log: log.With().Str("component", "review").Logger()}
}

// ListForCompany returns a company's reviews, newest first.
func (h *Handler) ListForCompany(c echo.Context) error {
	rows, err := h.pool.Query(c.Request().Context(), `
		SELECT r.id, r.order_id, r.company_id, r.reviewer_id, p.full_name,
		       r.rating, COALESCE(r.comment, ''), COALESCE(r.seller_reply, ''), r.created_at
		FROM reviews r
		JOIN profiles p ON p.id = r.reviewer_id
		WHERE r.company_id = $1
		ORDER BY r.created_at DESC
		LIMIT 100
	`, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list reviews"})
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.OrderID, &r.CompanyID, &r.ReviewerID, &r.ReviewerName,
			&r.Rating, &r.Comment, &r.SellerReply, &r.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		reviews = append(reviews, r)
	}

	return c.JSON(http.StatusOK, echo.Map{"reviews": reviews})
}

// Reply records the company's single public answer to a review.
func (h *Handler) Reply(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		Reply string `json:"reply"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	if req.Reply == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reply is required"})
	}

	var reviewID string
	err := h.pool.QueryRow(c.Request().Context(), `
		UPDATE reviews r SET seller_reply = $1
		FROM companies co
		WHERE r.id = $2 AND r.company_id = co.id AND co.profile_id = $3 AND r.seller_reply IS NULL
		RETURNING r.id
	`, req.Reply, c.Param("id"), userID).Scan(&reviewID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusConflict, echo.Map{"error": "review not found, not yours, or already answered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save reply"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "reply saved"})
}
