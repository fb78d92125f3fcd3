package quotes

import (
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/events"
)

type Handler struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
	bus  *events.Bus
}

func NewHandler(pool *pgxpool.Pool, log zerolog.Logger, bus *events.Bus) *Handler {
	return &Handler{pool: pool, log: log.With().Str("component", "quotes").Logger(), bus: bus}
}

// ProposalEvent feeds the notification bell for proposal traffic.
type ProposalEvent struct {
	QuoteID    string `json:"quote_id"`
	QuoteTitle string `json:"quote_title"`
	ClientID   string `json:"client_id"`
	CompanyOwn string `json:"company_owner_id"`
}

type createQuoteRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    *string `json:"category"`
	BudgetMin   *int64  `json:"budget_min"`
	BudgetMax   *int64  `json:"budget_max"`
}

// Create opens a new quote request on behalf of the caller.
func (h *Handler) Create(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createQuoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and description are required"})
	}
	if req.BudgetMin != nil && req.BudgetMax != nil && *req.BudgetMin > *req.BudgetMax {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "budget_min cannot exceed budget_max"})
	}

	var q Quote
	err := h.pool.QueryRow(c.Request().Context(), `
		INSERT INTO quotes (user_id, title, description, category, budget_min, budget_max)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, title, description, category, budget_min, budget_max, status, created_at
	`, userID, req.Title, req.Description, req.Category, req.BudgetMin, req.BudgetMax).Scan(
		&q.ID, &q.UserID, &q.Title, &q.Description, &q.Category, &q.BudgetMin, &q.BudgetMax, &q.Status, &q.CreatedAt)
	if err != nil {
		h.log.Error().Err(err).Msg("quote insert failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create quote"})
	}

	return c.JSON(http.StatusCreated, q)
}

// ListMine returns the caller's own quotes with proposal counts.
func (h *Handler) ListMine(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := h.pool.Query(c.Request().Context(), `
		SELECT q.id, q.user_id, q.title, q.description, q.category, q.budget_min, q.budget_max,
		       q.status, q.created_at,
		       (SELECT COUNT(*) FROM proposals p WHERE p.quote_id = q.id)
		FROM quotes q
		WHERE q.user_id = $1
		ORDER BY q.created_at DESC
	`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch quotes"})
	}
	defer rows.Close()

	quotes := []Quote{}
	for rows.Next() {
		var q Quote
		if err := rows.Scan(&q.ID, &q.UserID, &q.Title, &q.Description, &q.Category,
			&q.BudgetMin, &q.BudgetMax, &q.Status, &q.CreatedAt, &q.ProposalCount); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		quotes = append(quotes, q)
	}

	return c.JSON(http.StatusOK, echo.Map{"quotes": quotes})
}

// ListOpen returns open quotes a professional can bid on, optionally
// narrowed to a category.
func (h *Handler) ListOpen(c echo.Context) error {
	category := strings.TrimSpace(c.QueryParam("category"))

	rows, err := h.pool.Query(c.Request().Context(), `
		SELECT q.id, q.user_id, q.title, q.description, q.category, q.budget_min, q.budget_max,
		       q.status, q.created_at,
		       (SELECT COUNT(*) FROM proposals p WHERE p.quote_id = q.id)
		FROM quotes q
		WHERE q.status = 'open' AND ($1 = '' OR q.category = $1)
		ORDER BY q.created_at DESC
		LIMIT 100
	`, category)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch quotes"})
	}
	defer rows.Close()

	quotes := []Quote{}
	for rows.Next() {
		var q Quote
		if err := rows.Scan(&q.ID, &q.UserID, &q.Title, &q.Description, &q.Category,
			&q.BudgetMin, &q.BudgetMax, &q.Status, &q.CreatedAt, &q.ProposalCount); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		quotes = append(quotes, q)
	}

	return c.JSON(http.StatusOK, echo.Map{"quotes": quotes})
}

// Get returns one quote with its proposals. The quote owner sees every
// proposal; a company only sees its own.
func (h *Handler) Get(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	quoteID := c.Param("id")
	ctx := c.Request().Context()

	var q Quote
	err := h.pool.QueryRow(ctx, `
		SELECT id, user_id, title, description, category, budget_min, budget_max, status, created_at
		FROM quotes WHERE id = $1
	`, quoteID).Scan(&q.ID, &q.UserID, &q.Title, &q.Description, &q.Category,
		&q.BudgetMin, &q.BudgetMax, &q.Status, &q.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "quote not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch quote"})
	}

	query := `
		SELECT p.id, p.quote_id, p.company_id, co.company_name, p.price, p.cover_letter, p.status, p.created_at
		FROM proposals p
		JOIN companies co ON co.id = p.company_id
		WHERE p.quote_id = $1`
	args := []interface{}{quoteID}
	if q.UserID != userID {
		query += ` AND co.profile_id = $2`
		args = append(args, userID)
	}
	query += ` ORDER BY p.created_at`

	rows, err := h.pool.Query(ctx, query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch proposals"})
	}
	defer rows.Close()

	proposals := []Proposal{}
	for rows.Next() {
		var p Proposal
		if err := rows.Scan(&p.ID, &p.QuoteID, &p.CompanyID, &p.CompanyName,
			&p.Price, &p.CoverLetter, &p.Status, &p.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		proposals = append(proposals, p)
	}

	return c.JSON(http.StatusOK, echo.Map{"quote": q, "proposals": proposals})
}

// Cancel closes an open quote before any proposal is accepted.
func (h *Handler) Cancel(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	tag, err := h.pool.Exec(c.Request().Context(), `
		UPDATE quotes SET status = 'cancelled'
		WHERE id = $1 AND user_id = $2 AND status = 'open'
	`, c.Param("id"), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel quote"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "quote not open or not yours"})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": QuoteCancelled})
}

type submitProposalRequest struct {
	Price       int64   `json:"price"`
	CoverLetter *string `json:"cover_letter"`
}

// SubmitProposal lets a company bid on an open quote. One proposal per
// company per quote.
func (h *Handler) SubmitProposal(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	quoteID := c.Param("id")

	var req submitProposalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Price <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be positive"})
	}

	ctx := c.Request().Context()

	var (
		clientID   string
		quoteTitle string
	)
	err := h.pool.QueryRow(ctx, `
		SELECT user_id, title FROM quotes WHERE id = $1 AND status = 'open'
	`, quoteID).Scan(&clientID, &quoteTitle)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "quote not found or not open"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch quote"})
	}
	if clientID == userID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot bid on your own quote"})
	}

	var p Proposal
	err = h.pool.QueryRow(ctx, `
		INSERT INTO proposals (quote_id, company_id, price, cover_letter)
		SELECT $1, co.id, $2, $3
		FROM companies co
		WHERE co.profile_id = $4 AND co.status = 'approved'
		ON CONFLICT (quote_id, company_id) DO NOTHING
		RETURNING id, quote_id, company_id, price, cover_letter, status, created_at
	`, quoteID, req.Price, req.CoverLetter, userID).Scan(
		&p.ID, &p.QuoteID, &p.CompanyID, &p.Price, &p.CoverLetter, &p.Status, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			// Either no approved company for the caller or a duplicate bid.
			var exists bool
			if qerr := h.pool.QueryRow(ctx, `
				SELECT EXISTS (SELECT 1 FROM companies WHERE profile_id = $1 AND status = 'approved')
			`, userID).Scan(&exists); qerr == nil && !exists {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "approved company profile required"})
			}
			return c.JSON(http.StatusConflict, echo.Map{"error": "proposal already submitted for this quote"})
		}
		h.log.Error().Err(err).Msg("proposal insert failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to submit proposal"})
	}

	_ = h.bus.PublishJSON(events.EventProposalReceived, ProposalEvent{
		QuoteID:    quoteID,
		QuoteTitle: quoteTitle,
		ClientID:   clientID,
		CompanyOwn: userID,
	})

	return c.JSON(http.StatusCreated, p)
}

// AcceptProposal marks one proposal accepted, rejects the rest and moves
// the quote to in_progress.
func (h *Handler) AcceptProposal(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	quoteID := c.Param("id")
	proposalID := c.Param("proposal_id")

	ctx := c.Request().Context()
	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	defer tx.Rollback(ctx)

	var quoteTitle string
	err = tx.QueryRow(ctx, `
		SELECT title FROM quotes
		WHERE id = $1 AND user_id = $2 AND status = 'open'
		FOR UPDATE
	`, quoteID, userID).Scan(&quoteTitle)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusConflict, echo.Map{"error": "quote not open or not yours"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch quote"})
	}

	var companyOwner string
	err = tx.QueryRow(ctx, `
		UPDATE proposals p SET status = 'accepted'
		FROM companies co
		WHERE p.id = $1 AND p.quote_id = $2 AND p.status = 'pending' AND co.id = p.company_id
		RETURNING co.profile_id
	`, proposalID, quoteID).Scan(&companyOwner)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusConflict, echo.Map{"error": "proposal not pending on this quote"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to accept proposal"})
	}

	if _, err := tx.Exec(ctx, `
		UPDATE proposals SET status = 'rejected'
		WHERE quote_id = $1 AND id <> $2 AND status = 'pending'
	`, quoteID, proposalID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reject other proposals"})
	}

	if _, err := tx.Exec(ctx, `
		UPDATE quotes SET status = 'in_progress' WHERE id = $1
	`, quoteID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update quote"})
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit"})
	}

	_ = h.bus.PublishJSON(events.EventProposalAccepted, ProposalEvent{
		QuoteID:    quoteID,
		QuoteTitle: quoteTitle,
		ClientID:   userID,
		CompanyOwn: companyOwner,
	})

	return c.JSON(http.StatusOK, echo.Map{"status": QuoteInProgress, "accepted_proposal_id": proposalID})
}

// RejectProposal declines a single pending proposal without touching the
// quote itself.
func (h *Handler) RejectProposal(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	tag, err := h.pool.Exec(c.Request().Context(), `
		UPDATE proposals p SET status = 'rejected'
		FROM quotes q
		WHERE p.id = $1 AND p.quote_id = $2 AND p.status = 'pending'
		  AND q.id = p.quote_id AND q.user_id = $3
	`, c.Param("proposal_id"), c.Param("id"), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reject proposal"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "proposal not pending on this quote"})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": ProposalRejected})
}

// Complete closes an in_progress quote once the work is done.
func (h *Handler) Complete(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	tag, err := h.pool.Exec(c.Request().Context(), `
		UPDATE quotes SET status = 'completed'
		WHERE id = $1 AND user_id = $2 AND status = 'in_progress'
	`, c.Param("id"), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to complete quote"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "quote not in progress or not yours"})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": QuoteCompleted})
}
