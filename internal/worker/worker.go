package worker

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/config"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/notify"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/stats"
)

// Unpaid orders are cancelled after this long without payment.
const paymentWindow = "24 hours"

// Pending bookings must be answered by the company up to 24h before the
// appointment, otherwise they are auto-rejected.
const bookingAnswerWindow = "24 hours"

// Worker runs the periodic maintenance jobs: overdue delivery notices,
// seller level recomputation and stale payment expiry.
type Worker struct {
	pool     *pgxpool.Pool
	log      zerolog.Logger
	notifier *notify.Notifier
	cron     *cron.Cron
}

func New(pool *pgxpool.Pool, log zerolog.Logger, notifier *notify.Notifier) *Worker {
	return &Worker{
		pool:     pool,
		log:      log.With().Str("component", "worker").Logger(),
		notifier: notifier,
		cron:     cron.New(),
	}
}

// Start registers the cron entries and launches the scheduler.
func (w *Worker) Start(cfg config.WorkerConfig) error {
	jobs := []struct {
		spec string
		run  func(context.Context)
	}{
		{cfg.DeadlineSweepSpec, w.sweepDeadlines},
		{cfg.StatsRecomputeSpec, w.recomputeStats},
		{cfg.PaymentExpirySpec, w.expirePayments},
	}
	for _, j := range jobs {
		run := j.run
		if _, err := w.cron.AddFunc(j.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			run(ctx)
		}); err != nil {
			return err
		}
	}

	w.cron.Start()
	w.log.Info().Msg("worker started")
	return nil
}

func (w *Worker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	w.log.Info().Msg("worker stopped")
}

// sweepDeadlines notifies both sides of active orders whose delivery
// deadline has passed, and auto-rejects pending bookings the company
// never answered.
func (w *Worker) sweepDeadlines(ctx context.Context) {
	rows, err := w.pool.Query(ctx, `
		SELECT id, service_title, buyer_id, seller_id
		FROM orders
		WHERE status = 'active' AND delivery_deadline IS NOT NULL AND delivery_deadline < NOW()
	`)
	if err != nil {
		w.log.Error().Err(err).Msg("deadline sweep query failed")
		return
	}
	defer rows.Close()

	type overdue struct {
		id, title, buyerID, sellerID string
	}
	var found []overdue
	for rows.Next() {
		var o overdue
		if err := rows.Scan(&o.id, &o.title, &o.buyerID, &o.sellerID); err != nil {
			w.log.Error().Err(err).Msg("deadline sweep scan failed")
			return
		}
		found = append(found, o)
	}

	for _, o := range found {
		w.notifier.Create(ctx, o.sellerID, "order:overdue", "Entrega atrasada",
			o.title, "/orders/"+o.id)
		w.notifier.Create(ctx, o.buyerID, "order:overdue", "Prazo de entrega vencido",
			o.title, "/orders/"+o.id)
	}
	if len(found) > 0 {
		w.log.Info().Int("count", len(found)).Msg("overdue orders flagged")
	}

	// Bookings the company left pending until the last day.
	tag, err := w.pool.Exec(ctx, `
		UPDATE bookings SET status = 'rejected', updated_at = NOW()
		WHERE status = 'pending'
		  AND (booking_date + booking_time::time) <= NOW() + $1::interval
	`, bookingAnswerWindow)
	if err != nil {
		w.log.Error().Err(err).Msg("stale booking sweep failed")
		return
	}
	if tag.RowsAffected() > 0 {
		w.log.Info().Int64("count", tag.RowsAffected()).Msg("stale pending bookings rejected")
	}
}

// recomputeStats rebuilds seller_stats from completed orders and reviews
// and refreshes each seller's level.
func (w *Worker) recomputeStats(ctx context.Context) {
	rows, err := w.pool.Query(ctx, `
		SELECT o.seller_id,
		       COUNT(*),
		       COALESCE((SELECT AVG(r.rating) FROM reviews r
		                 JOIN orders ro ON ro.id = r.order_id
		                 WHERE ro.seller_id = o.seller_id), 0)
		FROM orders o
		WHERE o.status = 'completed'
		GROUP BY o.seller_id
	`)
	if err != nil {
		w.log.Error().Err(err).Msg("stats recompute query failed")
		return
	}
	defer rows.Close()

	type sellerRow struct {
		id        string
		completed int
		rating    float64
	}
	var sellers []sellerRow
	for rows.Next() {
		var s sellerRow
		if err := rows.Scan(&s.id, &s.completed, &s.rating); err != nil {
			w.log.Error().Err(err).Msg("stats recompute scan failed")
			return
		}
		sellers = append(sellers, s)
	}

	for _, s := range sellers {
		level, _ := stats.LevelFor(s.completed, s.rating)
		if _, err := w.pool.Exec(ctx, `
			INSERT INTO seller_stats (seller_id, total_completed_orders, average_rating, current_level, updated_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (seller_id) DO UPDATE SET
				total_completed_orders = EXCLUDED.total_completed_orders,
				average_rating = EXCLUDED.average_rating,
				current_level = EXCLUDED.current_level,
				updated_at = NOW()
		`, s.id, s.completed, s.rating, level); err != nil {
			w.log.Error().Err(err).Str("seller_id", s.id).Msg("stats upsert failed")
		}
	}
	w.log.Info().Int("sellers", len(sellers)).Msg("seller stats recomputed")
}

// expirePayments cancels orders that sat in pending_payment past the
// payment window. No money has moved yet, so no refund is needed.
func (w *Worker) expirePayments(ctx context.Context) {
	rows, err := w.pool.Query(ctx, `
		UPDATE orders SET status = 'cancelled', updated_at = NOW()
		WHERE status = 'pending_payment' AND created_at < NOW() - $1::interval
		RETURNING id, service_title, buyer_id
	`, paymentWindow)
	if err != nil {
		w.log.Error().Err(err).Msg("payment expiry failed")
		return
	}
	defer rows.Close()

	type expired struct {
		id, title, buyerID string
	}
	var cancelled []expired
	for rows.Next() {
		var e expired
		if err := rows.Scan(&e.id, &e.title, &e.buyerID); err != nil {
			w.log.Error().Err(err).Msg("payment expiry scan failed")
			return
		}
		cancelled = append(cancelled, e)
	}

	for _, e := range cancelled {
		w.notifier.Create(ctx, e.buyerID, "order:expired", "Pedido expirado por falta de pagamento",
			e.title, "/orders/"+e.id)
	}
	if len(cancelled) > 0 {
		w.log.Info().Int("count", len(cancelled)).Msg("unpaid orders expired")
	}
}
