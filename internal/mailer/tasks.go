package mailer

import (
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/events"
)

const (
	TaskWelcomeEmail     = "email:welcome"
	TaskBookingConfirmed = "email:booking_confirmed"
	TaskOrderDelivered   = "email:order_delivered"
	TaskOrderCompleted   = "email:order_completed"

	queueEmails = "emails"
)

type WelcomePayload struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type BookingPayload struct {
	BookingID    string `json:"booking_id"`
	ClientID     string `json:"client_id"`
	ServiceTitle string `json:"service_title"`
	Date         string `json:"date"`
	Time         string `json:"time"`
}

type OrderPayload struct {
	OrderID      string `json:"order_id"`
	ServiceTitle string `json:"service_title"`
	BuyerID      string `json:"buyer_id"`
	SellerID     string `json:"seller_id"`
}

// Enqueuer pushes email tasks onto the redis-backed queue.
type Enqueuer struct {
	client *asynq.Client
	log    zerolog.Logger
}

func NewEnqueuer(opt asynq.RedisClientOpt, log zerolog.Logger) *Enqueuer {
	return &Enqueuer{
		client: asynq.NewClient(opt),
		log:    log.With().Str("component", "mailer").Logger(),
	}
}

func (e *Enqueuer) Close() error {
	if e == nil {
		return nil
	}
	return e.client.Close()
}

func (e *Enqueuer) enqueue(taskType string, payload interface{}) {
	if e == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		e.log.Error().Err(err).Str("task", taskType).Msg("payload marshal failed")
		return
	}
	task := asynq.NewTask(taskType, raw)
	if _, err := e.client.Enqueue(task, asynq.Queue(queueEmails), asynq.MaxRetry(3)); err != nil {
		e.log.Error().Err(err).Str("task", taskType).Msg("enqueue failed")
	}
}

// Wire subscribes the enqueuer to the domain events that trigger an
// email. Event payloads are republished as queue tasks verbatim; the
// processor resolves addresses at delivery time.
func (e *Enqueuer) Wire(bus *events.Bus) {
	if e == nil {
		return
	}

	bus.Subscribe(events.EventUserRegistered, func(ev *events.Event) error {
		var p WelcomePayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return err
		}
		e.enqueue(TaskWelcomeEmail, p)
		return nil
	})

	bus.Subscribe(events.EventBookingConfirmed, func(ev *events.Event) error {
		var p BookingPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return err
		}
		e.enqueue(TaskBookingConfirmed, p)
		return nil
	})

	bus.Subscribe(events.EventOrderDelivered, func(ev *events.Event) error {
		var p OrderPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return err
		}
		e.enqueue(TaskOrderDelivered, p)
		return nil
	})

	bus.Subscribe(events.EventOrderCompleted, func(ev *events.Event) error {
		var p OrderPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return err
		}
		e.enqueue(TaskOrderCompleted, p)
		return nil
	})
}
