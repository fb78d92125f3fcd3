package favorites

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type Favorite struct {
	CompanyID   string    `json:"company_id"`
	CompanyName string    `json:"company_name"`
	Slug        string    `json:"slug"`
	LogoURL     string    `json:"logo_url,omitempty"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
}

type Handler struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewHandler(pool *pgxpool.Pool, log zerolog.Logger) *Handler {
	return &Handler{pool: pool, log: log.With().Str("component", "favorites").Logger()}
}

// Add favorites a company for the caller. Repeats are absorbed by the
// unique (user, company) pair.
func (h *Handler) Add(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	companyID := c.Param("companyID")
	res, err := h.pool.Exec(c.Request().Context(), `
		INSERT INTO favorites (user_id, company_id)
		SELECT $1, id FROM companies WHERE id = $2 AND status = 'approved'
		ON CONFLICT (user_id, company_id) DO NOTHING
	`, userID, companyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add favorite"})
	}
	if res.RowsAffected() == 0 {
		// Idempotent when already favorited; 404 only if the company is gone.
		var exists bool
		_ = h.pool.QueryRow(c.Request().Context(),
			`SELECT EXISTS (SELECT 1 FROM companies WHERE id = $1 AND status = 'approved')`, companyID).Scan(&exists)
		if !exists {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"favorited": true})
}

// Remove unfavorites a company.
func (h *Handler) Remove(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	if _, err := h.pool.Exec(c.Request().Context(),
		`DELETE FROM favorites WHERE user_id = $1 AND company_id = $2`,
		userID, c.Param("companyID")); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to remove favorite"})
	}

	return c.JSON(http.StatusOK, echo.Map{"favorited": false})
}

// List returns the caller's favorited companies.
func (h *Handler) List(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := h.pool.Query(c.Request().Context(), `
		SELECT co.id, co.company_name, co.slug, COALESCE(co.logo_url, ''), co.rating, f.created_at
		FROM favorites f
		JOIN companies co ON co.id = f.company_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list favorites"})
	}
	defer rows.Close()

	var favs []Favorite
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.CompanyID, &f.CompanyName, &f.Slug, &f.LogoURL, &f.Rating, &f.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		favs = append(favs, f)
	}

	return c.JSON(http.StatusOK, echo.Map{"favorites": favs})
}
