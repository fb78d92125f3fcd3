package order

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/catalog"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/events"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/metrics"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/storage"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/wallet"
)

type Handler struct {
	pool  *pgxpool.Pool
	log   zerolog.Logger
	bus   *events.Bus
	mtr   *metrics.Metrics
	store *storage.Store
}

func NewHandler(pool *pgxpool.Pool, log zerolog.Logger, bus *events.Bus, mtr *metrics.Metrics, store *storage.Store) *Handler {
	return &Handler{pool: pool, log: log.With().Str("component", "order").Logger(), bus: bus, mtr: mtr, store: store}
}

// OrderEvent is the payload published on order lifecycle events.
type OrderEvent struct {
	OrderID      string `json:"order_id"`
	BuyerID      string `json:"buyer_id"`
	SellerID     string `json:"seller_id"`
	ServiceTitle string `json:"service_title"`
	Status       string `json:"status"`
}

type PlaceRequest struct {
	ServiceID   string `json:"service_id"`
	PackageTier string `json:"package_tier"`
}

// Place creates a pending_payment order. The price is snapshotted from the
// selected package server-side; the client never supplies it.
func (h *Handler) Place(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req PlaceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	if req.PackageTier != catalog.TierBasic && req.PackageTier != catalog.TierStandard && req.PackageTier != catalog.TierPremium {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package_tier"})
	}

	ctx := c.Request().Context()

	var (
		title         string
		sellerID      string
		requiresQuote bool
		packagesJSON  []byte
	)
	err := h.pool.QueryRow(ctx, `
		SELECT s.title, co.profile_id, s.requires_quote, s.packages
		FROM services s
		JOIN companies co ON co.id = s.company_id
		WHERE s.id = $1 AND s.is_active AND co.status = 'approved'
	`, req.ServiceID).Scan(&title, &sellerID, &requiresQuote, &packagesJSON)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch service"})
	}
	if sellerID == userID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot order your own service"})
	}
	if requiresQuote {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service requires a quote"})
	}

	var packages catalog.Packages
	if len(packagesJSON) > 0 {
		if err := json.Unmarshal(packagesJSON, &packages); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "corrupt service packages"})
		}
	}
	pkg := tierPackage(&packages, req.PackageTier)
	if pkg == nil || pkg.Price <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "package tier not offered"})
	}

	snapshot, _ := json.Marshal(pkg)

	var orderID string
	err = h.pool.QueryRow(ctx, `
		INSERT INTO orders (service_id, service_title, buyer_id, seller_id, package_tier, price, package_snapshot)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id
	`, req.ServiceID, title, userID, sellerID, req.PackageTier, pkg.Price, snapshot).Scan(&orderID)
	if err != nil {
		h.log.Error().Err(err).Msg("order insert failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to place order"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"order_id":  orderID,
		"status":    StatusPendingPayment,
		"price":     pkg.Price,
		"breakdown": wallet.ComputeBreakdown(pkg.Price),
	})
}

// ConfirmPayment moves buyer funds into escrow and activates the order.
// The price is held on the seller's pending balance until completion.
func (h *Handler) ConfirmPayment(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	orderID := c.Param("id")
	ctx := c.Request().Context()

	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	defer tx.Rollback(ctx)

	var (
		sellerID     string
		price        int64
		status       string
		title        string
		snapshotJSON []byte
	)
	err = tx.QueryRow(ctx, `
		SELECT seller_id, price, status, service_title, package_snapshot
		FROM orders WHERE id = $1 AND buyer_id = $2
		FOR UPDATE
	`, orderID, userID).Scan(&sellerID, &price, &status, &title, &snapshotJSON)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found or not yours"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch order"})
	}
	if !CanPerform(status, RoleBuyer, ActionPay) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order not awaiting payment", "status": status})
	}

	// Guarded debit keeps the buyer balance from going negative.
	var buyerWalletID string
	err = tx.QueryRow(ctx, `
		UPDATE wallets SET balance = balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND balance >= $1
		RETURNING id
	`, price, userID).Scan(&buyerWalletID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient balance"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to debit wallet"})
	}

	_, err = tx.Exec(ctx, `
		UPDATE wallets SET pending_balance = pending_balance + $1, updated_at = NOW() WHERE user_id = $2
	`, price, sellerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to hold escrow"})
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (wallet_id, amount, type, description, order_id)
		VALUES ($1, $2, 'debit', 'Pagamento do pedido: ' || $3, $4)
	`, buyerWalletID, price, title, orderID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record payment"})
	}

	var pkg catalog.Package
	var deadline *time.Time
	if len(snapshotJSON) > 0 && json.Unmarshal(snapshotJSON, &pkg) == nil {
		deadline = DeadlineFrom(time.Now().UTC(), &pkg)
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders SET status = 'active', delivery_deadline = $1, updated_at = NOW() WHERE id = $2
	`, deadline, orderID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to activate order"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to finalize payment"})
	}

	h.mtr.OrderTransitions.WithLabelValues(StatusPendingPayment, StatusActive).Inc()
	_ = h.bus.PublishJSON(events.EventOrderPaid, OrderEvent{
		OrderID: orderID, BuyerID: userID, SellerID: sellerID, ServiceTitle: title, Status: StatusActive,
	})

	return c.JSON(http.StatusOK, echo.Map{"status": StatusActive, "delivery_deadline": deadline})
}

// Get returns one order for a participant, with the actions the caller may
// currently take.
func (h *Handler) Get(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var (
		o            Order
		snapshotJSON []byte
	)
	err := h.pool.QueryRow(c.Request().Context(), `
		SELECT o.id, o.service_id, o.service_title, o.buyer_id, o.seller_id, o.package_tier,
		       o.price, o.package_snapshot, o.status, o.delivery_deadline, o.created_at,
		       pb.full_name, ps.full_name
		FROM orders o
		JOIN profiles pb ON pb.id = o.buyer_id
		JOIN profiles ps ON ps.id = o.seller_id
		WHERE o.id = $1 AND (o.buyer_id = $2 OR o.seller_id = $2)
	`, c.Param("id"), userID).Scan(
		&o.ID, &o.ServiceID, &o.ServiceTitle, &o.BuyerID, &o.SellerID, &o.PackageTier,
		&o.Price, &snapshotJSON, &o.Status, &o.DeliveryDeadline, &o.CreatedAt,
		&o.BuyerName, &o.SellerName)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch order"})
	}
	if len(snapshotJSON) > 0 {
		_ = json.Unmarshal(snapshotJSON, &o.PackageSnapshot)
	}

	role := RoleBuyer
	if userID == o.SellerID {
		role = RoleSeller
	}

	return c.JSON(http.StatusOK, echo.Map{
		"order":           o,
		"role":            role,
		"allowed_actions": AllowedActions(o.Status, role),
		"breakdown":       wallet.ComputeBreakdown(o.Price),
	})
}

// ListMine lists the caller's orders on either side of the marketplace.
// The role query param selects buyer (default) or seller.
func (h *Handler) ListMine(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	column := "buyer_id"
	if c.QueryParam("role") == RoleSeller {
		column = "seller_id"
	}

	rows, err := h.pool.Query(c.Request().Context(), `
		SELECT o.id, o.service_id, o.service_title, o.buyer_id, o.seller_id, o.package_tier,
		       o.price, o.status, o.delivery_deadline, o.created_at, pb.full_name, ps.full_name
		FROM orders o
		JOIN profiles pb ON pb.id = o.buyer_id
		JOIN profiles ps ON ps.id = o.seller_id
		WHERE o.`+column+` = $1
		ORDER BY o.created_at DESC
	`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list orders"})
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.ServiceID, &o.ServiceTitle, &o.BuyerID, &o.SellerID,
			&o.PackageTier, &o.Price, &o.Status, &o.DeliveryDeadline, &o.CreatedAt,
			&o.BuyerName, &o.SellerName); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		orders = append(orders, o)
	}

	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// Deliver flips an active order to delivered. A text note and an attached
// file are both required; the upload lands in the deliveries bucket and a
// synthetic chat message carries it into the order room.
func (h *Handler) Deliver(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	note := c.FormValue("note")
	if note == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "delivery note is required"})
	}
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "delivery file is required"})
	}

	orderID := c.Param("id")
	ctx := c.Request().Context()

	var (
		buyerID string
		status  string
		title   string
	)
	err = h.pool.QueryRow(ctx, `
		SELECT buyer_id, status, service_title FROM orders WHERE id = $1 AND seller_id = $2
	`, orderID, userID).Scan(&buyerID, &status, &title)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found or not yours"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch order"})
	}
	if !CanPerform(status, RoleSeller, ActionDeliver) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order not active", "status": status})
	}

	// Upload before touching the row so a storage failure leaves the order
	// untouched.
	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable file"})
	}
	defer src.Close()

	objectPath, _, err := h.store.Save(storage.BucketOrderDeliveries, file.Filename, src)
	if err != nil {
		h.log.Error().Err(err).Str("order_id", orderID).Msg("delivery upload failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `
		UPDATE orders SET status = 'delivered', updated_at = NOW()
		WHERE id = $1 AND seller_id = $2 AND status = 'active'
	`, orderID, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update order"})
	}
	if res.RowsAffected() == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order not active"})
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO messages (order_id, sender_id, recipient_id, content, file_url, is_system)
		VALUES ($1, $2, $3, $4, $5, TRUE)
	`, orderID, userID, buyerID, "Entrega enviada: "+note, objectPath)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record delivery message"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to finalize delivery"})
	}

	h.mtr.OrderTransitions.WithLabelValues(StatusActive, StatusDelivered).Inc()
	_ = h.bus.PublishJSON(events.EventOrderDelivered, OrderEvent{
		OrderID: orderID, BuyerID: buyerID, SellerID: userID, ServiceTitle: title, Status: StatusDelivered,
	})

	// Deliveries are private: the message row keeps the bucket-relative
	// path and readers get a freshly signed link.
	fileURL, err := h.store.SignedURL(storage.BucketOrderDeliveries, objectPath, storage.DeliveryLinkTTL)
	if err != nil {
		fileURL = objectPath
	}
	return c.JSON(http.StatusOK, echo.Map{"status": StatusDelivered, "file_url": fileURL})
}

// RequestRevision loops a delivered order back to active.
func (h *Handler) RequestRevision(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	if req.Reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason is required"})
	}

	orderID := c.Param("id")
	ctx := c.Request().Context()

	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	defer tx.Rollback(ctx)

	var sellerID, title string
	err = tx.QueryRow(ctx, `
		UPDATE orders SET status = 'active', updated_at = NOW()
		WHERE id = $1 AND buyer_id = $2 AND status = 'delivered'
		RETURNING seller_id, service_title
	`, orderID, userID).Scan(&sellerID, &title)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusConflict, echo.Map{"error": "order not delivered or not yours"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update order"})
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO messages (order_id, sender_id, recipient_id, content, is_system)
		VALUES ($1, $2, $3, $4, TRUE)
	`, orderID, userID, sellerID, "Revisão solicitada: "+req.Reason)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record revision message"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to finalize revision"})
	}

	h.mtr.OrderTransitions.WithLabelValues(StatusDelivered, StatusActive).Inc()
	_ = h.bus.PublishJSON(events.EventOrderRevision, OrderEvent{
		OrderID: orderID, BuyerID: userID, SellerID: sellerID, ServiceTitle: title, Status: StatusActive,
	})

	return c.JSON(http.StatusOK, echo.Map{"status": StatusActive})
}

type CompleteRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Complete approves a delivered order in one transaction: the review is
// recorded, the company rating moves, escrow is released to the seller
// minus the platform fee, and the order closes.
func (h *Handler) Complete(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req CompleteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}

	orderID := c.Param("id")
	ctx := c.Request().Context()

	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	defer tx.Rollback(ctx)

	var (
		sellerID string
		price    int64
		status   string
		title    string
	)
	err = tx.QueryRow(ctx, `
		SELECT seller_id, price, status, service_title
		FROM orders WHERE id = $1 AND buyer_id = $2
		FOR UPDATE
	`, orderID, userID).Scan(&sellerID, &price, &status, &title)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found or not yours"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch order"})
	}
	if !CanPerform(status, RoleBuyer, ActionComplete) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order not delivered", "status": status})
	}

	var companyID string
	err = tx.QueryRow(ctx,
		`SELECT id FROM companies WHERE profile_id = $1`, sellerID).Scan(&companyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "seller company not found"})
	}

	// One review per order; the UNIQUE constraint backs this up.
	_, err = tx.Exec(ctx, `
		INSERT INTO reviews (order_id, company_id, reviewer_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
	`, orderID, companyID, userID, req.Rating, req.Comment)
	if err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order already reviewed"})
	}

	_, err = tx.Exec(ctx, `
		UPDATE companies SET
			rating = (rating * review_count + $1) / (review_count + 1),
			review_count = review_count + 1,
			updated_at = NOW()
		WHERE id = $2
	`, req.Rating, companyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update rating"})
	}

	// Release escrow: held amount leaves pending, net lands on balance.
	b := wallet.ComputeBreakdown(price)
	var sellerWalletID string
	err = tx.QueryRow(ctx, `
		UPDATE wallets SET
			pending_balance = pending_balance - $1,
			balance = balance + $2,
			updated_at = NOW()
		WHERE user_id = $3 AND pending_balance >= $1
		RETURNING id
	`, price, b.Net, sellerID).Scan(&sellerWalletID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusConflict, echo.Map{"error": "escrow not held for this order"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release escrow"})
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (wallet_id, amount, type, description, order_id)
		VALUES ($1, $2, 'credit', 'Recebimento do pedido: ' || $3, $4),
		       ($1, $5, 'debit', 'Taxa da plataforma (15%)', $4)
	`, sellerWalletID, b.Net, title, orderID, b.Fee)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record release"})
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders SET status = 'completed', updated_at = NOW() WHERE id = $1
	`, orderID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to close order"})
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO seller_stats (seller_id, total_completed_orders, average_rating, updated_at)
		VALUES ($1, 1, $2, NOW())
		ON CONFLICT (seller_id) DO UPDATE SET
			total_completed_orders = seller_stats.total_completed_orders + 1,
			average_rating = (SELECT AVG(r.rating) FROM reviews r WHERE r.company_id = $3),
			updated_at = NOW()
	`, sellerID, req.Rating, companyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update seller stats"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to finalize completion"})
	}

	h.mtr.OrderTransitions.WithLabelValues(StatusDelivered, StatusCompleted).Inc()
	_ = h.bus.PublishJSON(events.EventOrderCompleted, OrderEvent{
		OrderID: orderID, BuyerID: userID, SellerID: sellerID, ServiceTitle: title, Status: StatusCompleted,
	})
	_ = h.bus.PublishJSON(events.EventReviewReceived, OrderEvent{
		OrderID: orderID, BuyerID: userID, SellerID: sellerID, ServiceTitle: title, Status: StatusCompleted,
	})

	return c.JSON(http.StatusOK, echo.Map{"status": StatusCompleted, "released": b.Net, "fee": b.Fee})
}

// Cancel terminates an order. Escrow held on an active order flows back to
// the buyer.
func (h *Handler) Cancel(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	orderID := c.Param("id")
	ctx := c.Request().Context()

	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	defer tx.Rollback(ctx)

	var (
		buyerID  string
		sellerID string
		price    int64
		status   string
		title    string
	)
	err = tx.QueryRow(ctx, `
		SELECT buyer_id, seller_id, price, status, service_title
		FROM orders WHERE id = $1 AND (buyer_id = $2 OR seller_id = $2)
		FOR UPDATE
	`, orderID, userID).Scan(&buyerID, &sellerID, &price, &status, &title)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch order"})
	}

	role := RoleBuyer
	if userID == sellerID {
		role = RoleSeller
	}
	if !CanPerform(status, role, ActionCancel) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order not cancellable", "status": status})
	}

	// Paid orders refund the held amount back to the buyer.
	if status == StatusActive {
		var buyerWalletID string
		err = tx.QueryRow(ctx, `
			UPDATE wallets SET balance = balance + $1, updated_at = NOW()
			WHERE user_id = $2
			RETURNING id
		`, price, buyerID).Scan(&buyerWalletID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to refund buyer"})
		}
		_, err = tx.Exec(ctx, `
			UPDATE wallets SET pending_balance = pending_balance - $1, updated_at = NOW()
			WHERE user_id = $2 AND pending_balance >= $1
		`, price, sellerID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release escrow"})
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO transactions (wallet_id, amount, type, description, order_id)
			VALUES ($1, $2, 'credit', 'Reembolso do pedido: ' || $3, $4)
		`, buyerWalletID, price, title, orderID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record refund"})
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders SET status = 'cancelled', updated_at = NOW() WHERE id = $1
	`, orderID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel order"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to finalize cancellation"})
	}

	h.mtr.OrderTransitions.WithLabelValues(status, StatusCancelled).Inc()

	return c.JSON(http.StatusOK, echo.Map{"status": StatusCancelled})
}

func tierPackage(p *catalog.Packages, tier string) *catalog.Package {
	if p == nil {
		return nil
	}
	switch tier {
	case catalog.TierBasic:
		return p.Basic
	case catalog.TierStandard:
		return p.Standard
	case catalog.TierPremium:
		return p.Premium
	}
	return nil
}
