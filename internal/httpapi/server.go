package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/admin"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/auth"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/booking"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/catalog"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/company"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/config"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/favorites"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/feed"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/messaging"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/metrics"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/middleware"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/notify"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/order"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/quotes"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/review"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/stats"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/storage"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/wallet"
)

// Handlers collects the request handlers the router mounts.
type Handlers struct {
	Auth      *auth.Handler
	Catalog   *catalog.Handler
	Company   *company.Handler
	Booking   *booking.Handler
	Order     *order.Handler
	Wallet    *wallet.Handler
	Review    *review.Handler
	Feed      *feed.Handler
	Messaging *messaging.Handler
	Notify    *notify.Handler
	Favorites *favorites.Handler
	Stats     *stats.Handler
	Quotes    *quotes.Handler
	Admin     *admin.Handler
}

// Server owns the echo instance and its route table.
type Server struct {
	e   *echo.Echo
	log zerolog.Logger
	cfg config.HTTPConfig
}

func New(cfg config.Config, log zerolog.Logger, pool *pgxpool.Pool, rdb *redis.Client,
	mtr *metrics.Metrics, store *storage.Store, h Handlers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(requestMetrics(mtr, log))

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"service": cfg.App.Name,
			"version": cfg.App.Version,
			"status":  "ok",
		})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "database unreachable"})
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "redis unreachable"})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(mtr.Registry, promhttp.HandlerOpts{})))

	// Signup and login carry a per-IP rate limit.
	authGroup := e.Group("/auth")
	authGroup.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(rate.Limit(cfg.HTTP.AuthRateLimit))))
	authGroup.POST("/signup", h.Auth.Signup)
	authGroup.POST("/login", h.Auth.Login)

	// Public marketplace surface.
	e.GET("/categories", h.Catalog.ListCategories)
	e.GET("/feed", h.Feed.Feed)
	e.GET("/companies", h.Company.Search)
	e.GET("/companies/:slug", h.Company.GetBySlug)
	e.GET("/companies/:id/reviews", h.Review.ListForCompany)
	e.GET("/companies/:id/portfolio", h.Company.ListPortfolio)
	e.GET("/companies/:id/team", h.Company.ListTeam)
	e.GET("/companies/:id/slots", h.Company.AvailableSlots)
	e.GET("/services/:id", h.Catalog.GetService)
	e.GET("/files/:bucket/*", serveFile(store))

	jwt := middleware.JWT([]byte(cfg.Auth.JWTSecret))

	api := e.Group("", jwt)
	api.GET("/auth/me", h.Auth.Me)
	api.PATCH("/auth/profile", h.Auth.UpdateProfile)

	// Professional profile management.
	pro := api.Group("", middleware.RequireRoles("company", "admin"))
	pro.POST("/companies", h.Company.Register)
	pro.GET("/companies/me", h.Company.GetMine)
	pro.PATCH("/companies/me", h.Company.Update)
	pro.POST("/companies/me/branding", h.Company.UploadBranding)
	pro.GET("/companies/me/availability", h.Company.GetAvailability)
	pro.PUT("/companies/me/availability", h.Company.SetAvailability)
	pro.POST("/companies/me/portfolio", h.Company.AddPortfolioItem)
	pro.DELETE("/companies/me/portfolio/:itemID", h.Company.DeletePortfolioItem)

	pro.POST("/services", h.Catalog.CreateService)
	pro.PATCH("/services/:id", h.Catalog.UpdateService)
	pro.GET("/services/mine", h.Catalog.ListMyServices)
	pro.POST("/uploads/:bucket", h.Catalog.UploadAsset)

	pro.GET("/dashboard/metrics", h.Stats.Dashboard)
	pro.GET("/dashboard/alerts", h.Stats.Alerts)
	pro.GET("/dashboard/level", h.Stats.SellerLevel)

	pro.POST("/reviews/:id/reply", h.Review.Reply)

	// Bookings.
	api.POST("/bookings", h.Booking.Create)
	api.GET("/bookings", h.Booking.ListMine)
	api.POST("/bookings/:id/cancel", h.Booking.Cancel)
	pro.GET("/agenda", h.Booking.Agenda)
	pro.POST("/bookings/:id/confirm", h.Booking.Confirm)
	pro.POST("/bookings/:id/reject", h.Booking.Reject)

	// Orders and escrow.
	api.POST("/orders", h.Order.Place)
	api.GET("/orders", h.Order.ListMine)
	api.GET("/orders/:id", h.Order.Get)
	api.POST("/orders/:id/pay", h.Order.ConfirmPayment)
	api.POST("/orders/:id/deliver", h.Order.Deliver)
	api.POST("/orders/:id/revision", h.Order.RequestRevision)
	api.POST("/orders/:id/complete", h.Order.Complete)
	api.POST("/orders/:id/cancel", h.Order.Cancel)

	// Order chat.
	api.POST("/orders/:id/messages", h.Messaging.Send)
	api.GET("/orders/:id/messages", h.Messaging.List)
	api.POST("/orders/:id/attachments", h.Messaging.Attach)
	api.POST("/orders/:id/messages/:messageID/read", h.Messaging.MarkRead)
	api.GET("/orders/:id/ws", h.Messaging.OrderWS)
	api.GET("/conversations", h.Messaging.Conversations)

	// Wallet.
	api.GET("/wallet", h.Wallet.Balance)
	api.GET("/wallet/transactions", h.Wallet.Transactions)
	api.POST("/wallet/topup", h.Wallet.TopUp)
	pro.GET("/wallet/earnings", h.Wallet.Earnings)
	pro.POST("/wallet/payout", h.Wallet.RequestPayout)
	pro.PUT("/wallet/payout-destination", h.Wallet.SetPayoutDestination)
	pro.POST("/wallet/stripe/onboarding", h.Wallet.StripeOnboarding)
	pro.GET("/wallet/insights", h.Wallet.Insights)

	// Favorites. Only client accounts favorite companies.
	clientOnly := middleware.RequireRoles("client")
	api.POST("/favorites/:companyID", h.Favorites.Add, clientOnly)
	api.DELETE("/favorites/:companyID", h.Favorites.Remove, clientOnly)
	api.GET("/favorites", h.Favorites.List)

	// Quotes and proposals.
	api.POST("/quotes", h.Quotes.Create)
	api.GET("/quotes", h.Quotes.ListMine)
	api.GET("/quotes/:id", h.Quotes.Get)
	api.POST("/quotes/:id/cancel", h.Quotes.Cancel)
	api.POST("/quotes/:id/complete", h.Quotes.Complete)
	api.POST("/quotes/:id/proposals/:proposal_id/accept", h.Quotes.AcceptProposal)
	api.POST("/quotes/:id/proposals/:proposal_id/reject", h.Quotes.RejectProposal)
	pro.GET("/quotes/open", h.Quotes.ListOpen)
	pro.POST("/quotes/:id/proposals", h.Quotes.SubmitProposal)

	// Notifications.
	api.GET("/notifications", h.Notify.List)
	api.POST("/notifications/:id/read", h.Notify.MarkRead)
	api.POST("/notifications/read-all", h.Notify.MarkAllRead)
	api.GET("/notifications/ws", h.Notify.UserWS)

	// Back office.
	adm := e.Group("/admin", jwt, middleware.AdminGuard)
	adm.GET("/stats", h.Admin.Stats)
	adm.GET("/users", h.Admin.ListUsers)
	adm.POST("/users/:id/active", h.Admin.SetUserActive)
	adm.GET("/companies/pending", h.Admin.PendingCompanies)
	adm.POST("/companies/:id/approve", h.Admin.ApproveCompany)
	adm.POST("/companies/:id/suspend", h.Admin.SuspendCompany)
	adm.GET("/transactions", h.Admin.Transactions)

	return &Server{e: e, log: log.With().Str("component", "http").Logger(), cfg: cfg.HTTP}
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.log.Info().Str("addr", addr).Msg("http server listening")
	err := s.e.Start(addr)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.e
}

// requestMetrics records request counts and latency, and logs at debug
// level. The route template keeps the label cardinality bounded.
func requestMetrics(mtr *metrics.Metrics, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)

			mtr.HTTPRequests.WithLabelValues(method, path, status).Inc()
			mtr.HTTPDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

			log.Debug().
				Str("method", method).
				Str("path", c.Request().URL.Path).
				Str("status", status).
				Dur("took", time.Since(start)).
				Msg("request")
			return nil
		}
	}
}

// serveFile streams stored objects. The order-deliveries bucket only
// accepts signed links; the public buckets are open.
func serveFile(store *storage.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		bucket := c.Param("bucket")
		objectPath := c.Param("*")

		if bucket == storage.BucketOrderDeliveries {
			exp := c.QueryParam("exp")
			sig := c.QueryParam("sig")
			if err := store.Verify(bucket, objectPath, exp, sig); err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid or expired link"})
			}
		}

		f, err := store.Open(bucket, objectPath)
		if err != nil {
			if err == storage.ErrInvalidBucket {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown bucket"})
			}
			return c.JSON(http.StatusNotFound, echo.Map{"error": "file not found"})
		}
		defer f.Close()

		return c.Stream(http.StatusOK, "application/octet-stream", f)
	}
}
