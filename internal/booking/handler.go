package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/company"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/events"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/metrics"
)

type Handler struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
	bus  *events.Bus
	mtr  *metrics.Metrics
}

func NewHandler(pool *pgxpool.Pool, log zerolog.Logger, bus *events.Bus, mtr *metrics.Metrics) *Handler {
	return &Handler{pool: pool, log: log.With().Str("component", "booking").Logger(), bus: bus, mtr: mtr}
}

type CreateRequest struct {
	CompanyID   string `json:"company_id"`
	ServiceID   string `json:"service_id"`
	BookingDate string `json:"booking_date"`
	BookingTime string `json:"booking_time"`
}

// BookingEvent is the payload published on booking lifecycle events.
type BookingEvent struct {
	BookingID    string `json:"booking_id"`
	ClientID     string `json:"client_id"`
	CompanyOwner string `json:"company_owner_id"`
	ServiceTitle string `json:"service_title"`
	Date         string `json:"date"`
	Time         string `json:"time"`
}

// Create books a slot with a company. The slot must still be free against
// the company's schedule and existing bookings.
func (h *Handler) Create(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	date, err := time.Parse("2006-01-02", req.BookingDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_date must be YYYY-MM-DD"})
	}
	if req.CompanyID == "" || req.ServiceID == "" || req.BookingTime == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company_id, service_id, booking_date and booking_time are required"})
	}

	ctx := c.Request().Context()

	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start booking"})
	}
	defer tx.Rollback(ctx)

	var (
		serviceTitle    string
		servicePrice    int64
		durationMinutes int
		ownerID         string
		availBlob       []byte
	)
	err = tx.QueryRow(ctx, `
		SELECT s.title, s.starting_price, s.duration_minutes, co.profile_id, co.availability
		FROM services s
		JOIN companies co ON co.id = s.company_id
		WHERE s.id = $1 AND s.company_id = $2 AND s.is_active AND co.status = 'approved'
	`, req.ServiceID, req.CompanyID).Scan(&serviceTitle, &servicePrice, &durationMinutes, &ownerID, &availBlob)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch service"})
	}

	// Serialize against concurrent bookings for the same company/date.
	rows, err := tx.Query(ctx, `
		SELECT booking_time, duration_minutes FROM bookings
		WHERE company_id = $1 AND booking_date = $2 AND status IN ('pending', 'confirmed')
		FOR UPDATE
	`, req.CompanyID, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check availability"})
	}
	var booked []company.BookedBlock
	for rows.Next() {
		var b company.BookedBlock
		if err := rows.Scan(&b.Time, &b.DurationMinutes); err != nil {
			rows.Close()
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		booked = append(booked, b)
	}
	rows.Close()

	var week *company.WeekSchedule
	if len(availBlob) > 0 {
		week = &company.WeekSchedule{}
		if err := json.Unmarshal(availBlob, week); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "corrupt availability"})
		}
	}
	if week != nil {
		free := false
		for _, slot := range company.SlotsForDate(date, week, durationMinutes, booked) {
			if slot == req.BookingTime {
				free = true
				break
			}
		}
		if !free {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slot not available"})
		}
	}

	var bookingID string
	err = tx.QueryRow(ctx, `
		INSERT INTO bookings (client_id, company_id, service_id, service_title, service_price,
			booking_date, booking_time, duration_minutes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, userID, req.CompanyID, req.ServiceID, serviceTitle, servicePrice,
		date, req.BookingTime, durationMinutes).Scan(&bookingID)
	if err != nil {
		h.log.Error().Err(err).Msg("booking insert failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}

	h.mtr.BookingChanges.WithLabelValues(StatusPending).Inc()
	_ = h.bus.PublishJSON(events.EventBookingCreated, BookingEvent{
		BookingID: bookingID, ClientID: userID, CompanyOwner: ownerID,
		ServiceTitle: serviceTitle, Date: req.BookingDate, Time: req.BookingTime,
	})

	return c.JSON(http.StatusCreated, echo.Map{"booking_id": bookingID, "status": StatusPending})
}

// ListMine returns the caller's bookings as a client, newest date first.
func (h *Handler) ListMine(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := h.pool.Query(c.Request().Context(), `
		SELECT b.id, b.client_id, b.company_id, b.service_id, b.service_title, b.service_price,
		       to_char(b.booking_date, 'YYYY-MM-DD'), b.booking_time, b.duration_minutes, b.status,
		       b.created_at, co.company_name
		FROM bookings b
		JOIN companies co ON co.id = b.company_id
		WHERE b.client_id = $1
		ORDER BY b.booking_date DESC, b.booking_time DESC
	`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list bookings"})
	}
	defer rows.Close()

	bookings, err := scanBookings(rows, true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
	}

	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// Agenda returns the caller company's bookings for a date range. With
// view=calendar the response is bucketed by ISO date for the month grid.
func (h *Handler) Agenda(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	from, to, err := agendaRange(c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	rows, err := h.pool.Query(c.Request().Context(), `
		SELECT b.id, b.client_id, b.company_id, b.service_id, b.service_title, b.service_price,
		       to_char(b.booking_date, 'YYYY-MM-DD'), b.booking_time, b.duration_minutes, b.status,
		       b.created_at, p.full_name
		FROM bookings b
		JOIN companies co ON co.id = b.company_id
		JOIN profiles p ON p.id = b.client_id
		WHERE co.profile_id = $1 AND b.booking_date BETWEEN $2 AND $3
		ORDER BY b.booking_date, b.booking_time
	`, userID, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load agenda"})
	}
	defer rows.Close()

	bookings, err := scanBookings(rows, false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
	}

	if c.QueryParam("view") == "calendar" {
		return c.JSON(http.StatusOK, echo.Map{"calendar": BucketByDate(bookings)})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

var errBadRange = errors.New("from and to must be YYYY-MM-DD")

// agendaRange defaults to the current month when no bounds are given.
func agendaRange(fromStr, toStr string) (time.Time, time.Time, error) {
	if fromStr == "" && toStr == "" {
		now := time.Now().UTC()
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, -1), nil
	}
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, errBadRange
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return time.Time{}, time.Time{}, errBadRange
	}
	return from, to, nil
}

// Confirm flips a pending booking to confirmed. Company side.
func (h *Handler) Confirm(c echo.Context) error {
	return h.companyTransition(c, StatusConfirmed, events.EventBookingConfirmed)
}

// Reject flips a pending booking to rejected. Company side.
func (h *Handler) Reject(c echo.Context) error {
	return h.companyTransition(c, StatusRejected, events.EventBookingRejected)
}

func (h *Handler) companyTransition(c echo.Context, target, eventType string) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var ev BookingEvent
	err := h.pool.QueryRow(c.Request().Context(), `
		UPDATE bookings b SET status = $1, updated_at = NOW()
		FROM companies co
		WHERE b.id = $2 AND b.company_id = co.id AND co.profile_id = $3 AND b.status = 'pending'
		RETURNING b.id, b.client_id, co.profile_id, b.service_title,
		          to_char(b.booking_date, 'YYYY-MM-DD'), b.booking_time
	`, target, c.Param("id"), userID).Scan(
		&ev.BookingID, &ev.ClientID, &ev.CompanyOwner, &ev.ServiceTitle, &ev.Date, &ev.Time)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking not pending or not yours"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update booking"})
	}

	h.mtr.BookingChanges.WithLabelValues(target).Inc()
	_ = h.bus.PublishJSON(eventType, ev)

	return c.JSON(http.StatusOK, echo.Map{"status": target})
}

// Cancel lets the client cancel a booking that has not happened yet.
func (h *Handler) Cancel(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var ev BookingEvent
	err := h.pool.QueryRow(c.Request().Context(), `
		UPDATE bookings b SET status = 'cancelled', updated_at = NOW()
		FROM companies co
		WHERE b.id = $1 AND b.client_id = $2 AND b.company_id = co.id
		  AND b.status IN ('pending', 'confirmed')
		RETURNING b.id, b.client_id, co.profile_id, b.service_title,
		          to_char(b.booking_date, 'YYYY-MM-DD'), b.booking_time
	`, c.Param("id"), userID).Scan(
		&ev.BookingID, &ev.ClientID, &ev.CompanyOwner, &ev.ServiceTitle, &ev.Date, &ev.Time)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking not cancellable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
	}

	h.mtr.BookingChanges.WithLabelValues(StatusCancelled).Inc()
	_ = h.bus.PublishJSON(events.EventBookingCancelled, ev)

	return c.JSON(http.StatusOK, echo.Map{"status": StatusCancelled})
}

func scanBookings(rows pgx.Rows, joinCompany bool) ([]Booking, error) {
	var bookings []Booking
	for rows.Next() {
		var (
			b    Booking
			name string
		)
		if err := rows.Scan(&b.ID, &b.ClientID, &b.CompanyID, &b.ServiceID, &b.ServiceTitle,
			&b.ServicePrice, &b.BookingDate, &b.BookingTime, &b.DurationMinutes, &b.Status,
			&b.CreatedAt, &name); err != nil {
			return nil, err
		}
		if joinCompany {
			b.CompanyName = name
		} else {
			b.ClientName = name
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
