package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/events"
)

// Handler serves the back-office endpoints. Every route behind it is
// guarded by the admin role middleware.
type Handler struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
	bus  *events.Bus
}

func NewHandler(pool *pgxpool.Pool, log zerolog.Logger, bus *events.Bus) *Handler {
	return &Handler{pool: pool, log: log.With().Str("component", "admin").Logger(), bus: bus}
}

// Stats returns the platform headline counters.
func (h *Handler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		users, companies, pendingCompanies int64
		services, orders, bookings         int64
		escrowHeld, feesCollected          int64
	)
	err := h.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM profiles),
			(SELECT COUNT(*) FROM companies),
			(SELECT COUNT(*) FROM companies WHERE status = 'pending'),
			(SELECT COUNT(*) FROM services WHERE is_active),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM bookings),
			(SELECT COALESCE(SUM(pending_balance), 0) FROM wallets),
			(SELECT COALESCE(SUM(t.amount), 0) FROM transactions t
			 WHERE t.type = 'debit' AND t.description LIKE 'Taxa da plataforma%')
	`).Scan(&users, &companies, &pendingCompanies, &services, &orders, &bookings, &escrowHeld, &feesCollected)
	if err != nil {
		h.log.Error().Err(err).Msg("platform stats failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute stats"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"users":             users,
		"companies":         companies,
		"pending_companies": pendingCompanies,
		"active_services":   services,
		"orders":            orders,
		"bookings":          bookings,
		"escrow_held":       escrowHeld,
		"fees_collected":    feesCollected,
	})
}

type adminUser struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ListUsers returns profiles newest first.
func (h *Handler) ListUsers(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	rows, err := h.pool.Query(c.Request().Context(), `
		SELECT id, full_name, email, role, is_active, created_at
		FROM profiles
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch users"})
	}
	defer rows.Close()

	users := []adminUser{}
	for rows.Next() {
		var u adminUser
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		users = append(users, u)
	}

	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// SetUserActive suspends or reactivates a profile.
func (h *Handler) SetUserActive(c echo.Context) error {
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	tag, err := h.pool.Exec(c.Request().Context(), `
		UPDATE profiles SET is_active = $1, updated_at = NOW() WHERE id = $2 AND role <> 'admin'
	`, req.Active, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"user_id": c.Param("id"), "is_active": req.Active})
}

type pendingCompany struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"company_name"`
	Category    string    `json:"category"`
	Email       string    `json:"email"`
	CNPJ        *string   `json:"cnpj,omitempty"`
	OwnerName   string    `json:"owner_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// PendingCompanies lists companies awaiting moderation.
func (h *Handler) PendingCompanies(c echo.Context) error {
	rows, err := h.pool.Query(c.Request().Context(), `
		SELECT co.id, co.company_name, co.category, co.email, co.cnpj, p.full_name, co.created_at
		FROM companies co
		JOIN profiles p ON p.id = co.profile_id
		WHERE co.status = 'pending'
		ORDER BY co.created_at
	`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch companies"})
	}
	defer rows.Close()

	companies := []pendingCompany{}
	for rows.Next() {
		var pc pendingCompany
		if err := rows.Scan(&pc.ID, &pc.CompanyName, &pc.Category, &pc.Email, &pc.CNPJ, &pc.OwnerName, &pc.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		companies = append(companies, pc)
	}

	return c.JSON(http.StatusOK, echo.Map{"companies": companies})
}

// ApproveCompany moves a pending company into the marketplace.
func (h *Handler) ApproveCompany(c echo.Context) error {
	var (
		ownerID     string
		companyName string
	)
	err := h.pool.QueryRow(c.Request().Context(), `
		UPDATE companies SET status = 'approved', verified = TRUE, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING profile_id, company_name
	`, c.Param("id")).Scan(&ownerID, &companyName)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusConflict, echo.Map{"error": "company not pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to approve company"})
	}

	_ = h.bus.PublishJSON(events.EventCompanyApproved, map[string]string{
		"owner_id":     ownerID,
		"company_name": companyName,
	})

	h.log.Info().Str("company_id", c.Param("id")).Msg("company approved")
	return c.JSON(http.StatusOK, echo.Map{"company_id": c.Param("id"), "status": "approved"})
}

// SuspendCompany pulls an approved company out of the marketplace.
func (h *Handler) SuspendCompany(c echo.Context) error {
	tag, err := h.pool.Exec(c.Request().Context(), `
		UPDATE companies SET status = 'suspended', updated_at = NOW()
		WHERE id = $1 AND status = 'approved'
	`, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to suspend company"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "company not approved"})
	}

	h.log.Info().Str("company_id", c.Param("id")).Msg("company suspended")
	return c.JSON(http.StatusOK, echo.Map{"company_id": c.Param("id"), "status": "suspended"})
}

type adminTransaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Transactions returns the platform-wide ledger, newest first.
func (h *Handler) Transactions(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := h.pool.Query(c.Request().Context(), `
		SELECT t.id, w.user_id, p.full_name, t.type, t.amount, t.description, t.created_at
		FROM transactions t
		JOIN wallets w ON w.id = t.wallet_id
		JOIN profiles p ON p.id = w.user_id
		ORDER BY t.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch transactions"})
	}
	defer rows.Close()

	txs := []adminTransaction{}
	for rows.Next() {
		var t adminTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.UserName, &t.Type, &t.Amount, &t.Description, &t.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		txs = append(txs, t)
	}

	return c.JSON(http.StatusOK, echo.Map{"transactions": txs})
}
