package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/events"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/metrics"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/realtime"
)

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message,omitempty"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier persists notifications and pushes them to the recipient's
// websocket channel.
type Notifier struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
	hub  *realtime.Hub
	mtr  *metrics.Metrics
}

func NewNotifier(pool *pgxpool.Pool, log zerolog.Logger, hub *realtime.Hub, mtr *metrics.Metrics) *Notifier {
	return &Notifier{pool: pool, log: log.With().Str("component", "notify").Logger(), hub: hub, mtr: mtr}
}

// Create inserts a notification and pushes it out. Failures log and drop;
// notifications never break the triggering flow.
func (n *Notifier) Create(ctx context.Context, userID, kind, title, message, link string) {
	var notif Notification
	err := n.pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, type, title, message, link)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, type, title, COALESCE(message, ''), COALESCE(link, ''), read, created_at
	`, userID, kind, title, message, link).Scan(
		&notif.ID, &notif.UserID, &notif.Type, &notif.Title, &notif.Message, &notif.Link, &notif.Read, &notif.CreatedAt)
	if err != nil {
		n.log.Error().Err(err).Str("user_id", userID).Str("type", kind).Msg("notification insert failed")
		return
	}

	n.mtr.NotificationsOut.Inc()
	n.hub.Publish(ctx, realtime.UserTopic(userID), realtime.Event{Type: "notification_new", Data: notif})
}

// bookingPayload mirrors the booking package's event payload.
type bookingPayload struct {
	BookingID    string `json:"booking_id"`
	ClientID     string `json:"client_id"`
	CompanyOwner string `json:"company_owner_id"`
	ServiceTitle string `json:"service_title"`
	Date         string `json:"date"`
	Time         string `json:"time"`
}

// orderPayload mirrors the order package's event payload.
type orderPayload struct {
	OrderID      string `json:"order_id"`
	BuyerID      string `json:"buyer_id"`
	SellerID     string `json:"seller_id"`
	ServiceTitle string `json:"service_title"`
}

// messagePayload mirrors the messaging package's event payload.
type messagePayload struct {
	OrderID     string `json:"order_id"`
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
}

// proposalPayload mirrors the quotes package's event payload.
type proposalPayload struct {
	QuoteID    string `json:"quote_id"`
	QuoteTitle string `json:"quote_title"`
	ClientID   string `json:"client_id"`
	CompanyOwn string `json:"company_owner_id"`
}

// Wire subscribes the notifier to the domain events that surface in the
// notification bell.
func (n *Notifier) Wire(bus *events.Bus) {
	ctx := context.Background()

	bus.Subscribe(events.EventBookingCreated, func(e *events.Event) error {
		var p bookingPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		n.Create(ctx, p.CompanyOwner, "booking:new", "Novo agendamento",
			p.ServiceTitle+" em "+p.Date+" às "+p.Time, "/dashboard/agenda")
		return nil
	})
	bus.Subscribe(events.EventBookingConfirmed, func(e *events.Event) error {
		var p bookingPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		n.Create(ctx, p.ClientID, "booking:confirmed", "Agendamento confirmado",
			p.ServiceTitle+" em "+p.Date+" às "+p.Time, "/bookings")
		return nil
	})
	bus.Subscribe(events.EventBookingRejected, func(e *events.Event) error {
		var p bookingPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		n.Create(ctx, p.ClientID, "booking:rejected", "Agendamento recusado", p.ServiceTitle, "/bookings")
		return nil
	})
	bus.Subscribe(events.EventBookingCancelled, func(e *events.Event) error {
		var p bookingPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		n.Create(ctx, p.CompanyOwner, "booking:cancelled", "Agendamento cancelado", p.ServiceTitle, "/dashboard/agenda")
		return nil
	})

	bus.Subscribe(events.EventOrderPaid, func(e *events.Event) error {
		var p orderPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		n.Create(ctx, p.SellerID, "order:paid", "Pedido pago",
			p.ServiceTitle+" está ativo", "/orders/"+p.OrderID)
		return nil
	})
	bus.Subscribe(events.EventOrderDelivered, func(e *events.Event) error {
		var p orderPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		n.Create(ctx, p.BuyerID, "order:delivered", "Pedido entregue",
			p.ServiceTitle, "/orders/"+p.OrderID)
		return nil
	})
	bus.Subscribe(events.EventOrderRevision, func(e *events.Event) error {
		var p orderPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		n.Create(ctx, p.SellerID, "order:revision", "Revisão solicitada",
			p.ServiceTitle, "/orders/"+p.OrderID)
		return nil
	})
	bus.Subscribe(events.EventOrderCompleted, func(e *events.Event) error {
		var p orderPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		n.Create(ctx, p.SellerID, "order:completed", "Pedido concluído",
			p.ServiceTitle+" — pagamento liberado", "/orders/"+p.OrderID)
		return nil
	})

	bus.Subscribe(events.EventMessageReceived, func(e *events.Event) error {
		var p messagePayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		n.Create(ctx, p.RecipientID, "message:new", "Nova mensagem", p.Content, "/orders/"+p.OrderID)
		return nil
	})

	bus.Subscribe(events.EventCompanyApproved, func(e *events.Event) error {
		var p struct {
			OwnerID     string `json:"owner_id"`
			CompanyName string `json:"company_name"`
		}
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		n.Create(ctx, p.OwnerID, "company:approved", "Empresa aprovada",
			p.CompanyName+" já está visível no marketplace", "/dashboard")
		return nil
	})

	bus.Subscribe(events.EventProposalReceived, func(e *events.Event) error {
		var p proposalPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		n.Create(ctx, p.ClientID, "proposal:new", "Nova proposta recebida", p.QuoteTitle, "/quotes/"+p.QuoteID)
		return nil
	})
	bus.Subscribe(events.EventProposalAccepted, func(e *events.Event) error {
		var p proposalPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		n.Create(ctx, p.CompanyOwn, "proposal:accepted", "Proposta aceita", p.QuoteTitle, "/quotes/"+p.QuoteID)
		return nil
	})
}
