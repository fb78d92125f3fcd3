package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/metrics"
)

type Handler struct {
	pool   *pgxpool.Pool
	log    zerolog.Logger
	mtr    *metrics.Metrics
	stripe *StripeClient
	gemini *GeminiClient
}

func NewHandler(pool *pgxpool.Pool, log zerolog.Logger, mtr *metrics.Metrics, stripe *StripeClient, gemini *GeminiClient) *Handler {
	return &Handler{
		pool:   pool,
		log:    log.With().Str("component", "wallet").Logger(),
		mtr:    mtr,
		stripe: stripe,
		gemini: gemini,
	}
}

// Balance returns the caller's wallet with available and escrowed funds.
func (h *Handler) Balance(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var w Wallet
	err := h.pool.QueryRow(c.Request().Context(),
		`SELECT id, user_id, balance, pending_balance FROM wallets WHERE user_id = $1`, userID,
	).Scan(&w.ID, &w.UserID, &w.Balance, &w.PendingBalance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "wallet not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch wallet"})
	}

	return c.JSON(http.StatusOK, w)
}

// Transactions lists the caller's ledger, filterable by type and date range.
func (h *Handler) Transactions(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	txType := c.QueryParam("type")
	if txType != "" && txType != TxCredit && txType != TxDebit {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be credit or debit"})
	}

	var from, to *time.Time
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
		}
		from = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
		}
		end := t.AddDate(0, 0, 1)
		to = &end
	}

	rows, err := h.pool.Query(c.Request().Context(), `
		SELECT t.id, t.amount, t.type, t.description, t.order_id, t.created_at
		FROM transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE w.user_id = $1
		  AND ($2 = '' OR t.type = $2)
		  AND ($3::timestamptz IS NULL OR t.created_at >= $3)
		  AND ($4::timestamptz IS NULL OR t.created_at < $4)
		ORDER BY t.created_at DESC
		LIMIT 200
	`, userID, txType, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list transactions"})
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Amount, &t.Type, &t.Description, &t.OrderID, &t.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		txs = append(txs, t)
	}

	return c.JSON(http.StatusOK, echo.Map{"transactions": txs})
}

// Earnings returns the authoritative gross/fee/net breakdown over completed
// order credits plus the funds still held in escrow.
func (h *Handler) Earnings(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var gross, pending int64
	err := h.pool.QueryRow(c.Request().Context(), `
		SELECT COALESCE(SUM(o.price), 0),
		       (SELECT pending_balance FROM wallets WHERE user_id = $1)
		FROM orders o
		WHERE o.seller_id = $1 AND o.status = 'completed'
	`, userID).Scan(&gross, &pending)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute earnings"})
	}

	b := ComputeBreakdown(gross)
	return c.JSON(http.StatusOK, echo.Map{
		"gross":           b.Gross,
		"fee":             b.Fee,
		"net":             b.Net,
		"fee_percent":     PlatformFeePercent,
		"pending_balance": pending,
	})
}

// TopUp credits the caller's wallet. Funding is assumed collected upstream
// by the payment provider before this is called.
func (h *Handler) TopUp(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be greater than zero"})
	}

	ctx := c.Request().Context()
	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	defer tx.Rollback(ctx)

	var walletID string
	var balance int64
	err = tx.QueryRow(ctx,
		`UPDATE wallets SET balance = balance + $1, updated_at = NOW() WHERE user_id = $2
		 RETURNING id, balance`, req.Amount, userID).Scan(&walletID, &balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "wallet not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to credit wallet"})
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO transactions (wallet_id, amount, type, description) VALUES ($1, $2, 'credit', 'Recarga de saldo')`,
		walletID, req.Amount)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record transaction"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to finalize top-up"})
	}

	return c.JSON(http.StatusOK, echo.Map{"balance": balance})
}

// RequestPayout debits available funds for transfer to the configured
// destination. The guarded UPDATE keeps the balance from ever going
// negative under concurrent requests.
func (h *Handler) RequestPayout(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be greater than zero"})
	}

	ctx := c.Request().Context()
	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	defer tx.Rollback(ctx)

	var destBlob []byte
	err = tx.QueryRow(ctx,
		`SELECT payout_destination FROM wallets WHERE user_id = $1 FOR UPDATE`, userID).Scan(&destBlob)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "wallet not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch wallet"})
	}
	if len(destBlob) == 0 {
		return c.JSON(http.StatusPreconditionFailed, echo.Map{"error": "payout destination not configured"})
	}

	var walletID string
	err = tx.QueryRow(ctx, `
		UPDATE wallets SET balance = balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND balance >= $1
		RETURNING id
	`, req.Amount, userID).Scan(&walletID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient balance"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to debit wallet"})
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO transactions (wallet_id, amount, type, description) VALUES ($1, $2, 'debit', 'Saque solicitado')`,
		walletID, req.Amount)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record transaction"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to finalize payout"})
	}

	h.mtr.PayoutRequests.Inc()
	h.log.Info().Str("user_id", userID).Int64("amount", req.Amount).Msg("payout requested")

	return c.JSON(http.StatusOK, echo.Map{"amount": req.Amount, "status": "requested"})
}

// SetPayoutDestination stores the seller's bank or PIX details.
func (h *Handler) SetPayoutDestination(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var dest PayoutDestination
	if err := c.Bind(&dest); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	switch dest.Method {
	case "pix":
		if dest.PixKey == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "pix_key is required"})
		}
	case "bank":
		if dest.BankCode == "" || dest.Agency == "" || dest.Account == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "bank_code, agency and account are required"})
		}
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "method must be pix or bank"})
	}

	blob, _ := json.Marshal(dest)
	res, err := h.pool.Exec(c.Request().Context(),
		`UPDATE wallets SET payout_destination = $1, updated_at = NOW() WHERE user_id = $2`, blob, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save destination"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "wallet not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "payout destination saved"})
}

// StripeOnboarding creates (or reuses) the company's connected account and
// returns a hosted onboarding link.
func (h *Handler) StripeOnboarding(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if h.stripe == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payments not configured"})
	}

	ctx := c.Request().Context()

	var companyID, email string
	var accountID *string
	err := h.pool.QueryRow(ctx,
		`SELECT id, email, stripe_account_id FROM companies WHERE profile_id = $1`, userID,
	).Scan(&companyID, &email, &accountID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch company"})
	}

	acct := ""
	if accountID != nil {
		acct = *accountID
	}
	if acct == "" {
		acct, err = h.stripe.CreateAccount(ctx, email)
		if err != nil {
			h.log.Error().Err(err).Msg("stripe account creation failed")
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
		}
		if _, err := h.pool.Exec(ctx,
			`UPDATE companies SET stripe_account_id = $1, updated_at = NOW() WHERE id = $2`, acct, companyID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save account"})
		}
	}

	link, err := h.stripe.CreateAccountLink(ctx, acct)
	if err != nil {
		h.log.Error().Err(err).Msg("stripe account link failed")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
	}

	return c.JSON(http.StatusOK, echo.Map{"onboarding_url": link})
}

// Insights asks the LLM for free-text commentary over the recent ledger.
// Display-only; nothing depends on the output.
func (h *Handler) Insights(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rows, err := h.pool.Query(c.Request().Context(), `
		SELECT t.amount, t.type, t.description, t.created_at
		FROM transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE w.user_id = $1
		ORDER BY t.created_at DESC
		LIMIT 50
	`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load transactions"})
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var (
			amount    int64
			txType    string
			desc      string
			createdAt time.Time
		)
		if err := rows.Scan(&amount, &txType, &desc, &createdAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		lines = append(lines, fmt.Sprintf("%s %s R$%.2f %s",
			createdAt.Format("2006-01-02"), txType, float64(amount)/100, desc))
	}
	if len(lines) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"insights": "Sem movimentações recentes para analisar."})
	}

	prompt := "Você é um consultor financeiro para pequenos prestadores de serviço. " +
		"Analise o extrato abaixo e escreva até três dicas curtas em português:\n" +
		strings.Join(lines, "\n")

	return c.JSON(http.StatusOK, echo.Map{"insights": h.generateInsights(c.Request().Context(), prompt)})
}

// generateInsights degrades to an empty string when the provider is
// missing or failing; callers still get a 200 without a tip.
func (h *Handler) generateInsights(ctx context.Context, prompt string) string {
	if h.gemini == nil {
		return ""
	}
	text, err := h.gemini.Generate(ctx, prompt)
	if err != nil {
		h.log.Warn().Err(err).Msg("insights generation failed")
		return ""
	}
	return text
}
