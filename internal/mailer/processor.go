package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Processor consumes the email queue and delivers through Plunk.
// Recipient addresses are resolved at delivery time so a stale queue
// entry never emails an outdated address.
type Processor struct {
	server *asynq.Server
	pool   *pgxpool.Pool
	log    zerolog.Logger
	client *PlunkClient
}

func NewProcessor(opt asynq.RedisClientOpt, pool *pgxpool.Pool, log zerolog.Logger, client *PlunkClient) *Processor {
	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{queueEmails: 10},
	})
	return &Processor{
		server: server,
		pool:   pool,
		log:    log.With().Str("component", "mailer_processor").Logger(),
		client: client,
	}
}

// Start runs the queue consumer in the background.
func (p *Processor) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskWelcomeEmail, p.handleWelcome)
	mux.HandleFunc(TaskBookingConfirmed, p.handleBookingConfirmed)
	mux.HandleFunc(TaskOrderDelivered, p.handleOrderDelivered)
	mux.HandleFunc(TaskOrderCompleted, p.handleOrderCompleted)

	return p.server.Start(mux)
}

func (p *Processor) Stop() {
	p.server.Shutdown()
}

func (p *Processor) profileEmail(ctx context.Context, userID string) (email, name string, err error) {
	err = p.pool.QueryRow(ctx, `
		SELECT email, full_name FROM profiles WHERE id = $1 AND is_active
	`, userID).Scan(&email, &name)
	return email, name, err
}

func (p *Processor) handleWelcome(ctx context.Context, t *asynq.Task) error {
	var payload WelcomePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}

	body := fmt.Sprintf("Olá %s,\n\nSua conta foi criada com sucesso. Bem-vindo ao marketplace!\n", payload.FullName)
	if payload.Role == "company" {
		body = fmt.Sprintf("Olá %s,\n\nSua conta profissional foi criada. Cadastre sua empresa para começar a receber pedidos.\n", payload.FullName)
	}

	if err := p.client.Send(ctx, payload.Email, "Bem-vindo!", body); err != nil {
		p.log.Error().Err(err).Str("user_id", payload.UserID).Msg("welcome email failed")
		return err
	}
	return nil
}

func (p *Processor) handleBookingConfirmed(ctx context.Context, t *asynq.Task) error {
	var payload BookingPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}

	email, name, err := p.profileEmail(ctx, payload.ClientID)
	if err != nil {
		p.log.Warn().Err(err).Str("booking_id", payload.BookingID).Msg("recipient lookup failed, dropping email")
		return nil
	}

	body := fmt.Sprintf("Olá %s,\n\nSeu agendamento de %s foi confirmado para %s às %s.\n",
		name, payload.ServiceTitle, payload.Date, payload.Time)
	if err := p.client.Send(ctx, email, "Agendamento confirmado", body); err != nil {
		p.log.Error().Err(err).Str("booking_id", payload.BookingID).Msg("booking email failed")
		return err
	}
	return nil
}

func (p *Processor) handleOrderDelivered(ctx context.Context, t *asynq.Task) error {
	var payload OrderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}

	email, name, err := p.profileEmail(ctx, payload.BuyerID)
	if err != nil {
		p.log.Warn().Err(err).Str("order_id", payload.OrderID).Msg("recipient lookup failed, dropping email")
		return nil
	}

	body := fmt.Sprintf("Olá %s,\n\nO pedido %q foi entregue. Revise a entrega e confirme a conclusão para liberar o pagamento.\n",
		name, payload.ServiceTitle)
	if err := p.client.Send(ctx, email, "Pedido entregue", body); err != nil {
		p.log.Error().Err(err).Str("order_id", payload.OrderID).Msg("delivery email failed")
		return err
	}
	return nil
}

func (p *Processor) handleOrderCompleted(ctx context.Context, t *asynq.Task) error {
	var payload OrderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}

	email, name, err := p.profileEmail(ctx, payload.SellerID)
	if err != nil {
		p.log.Warn().Err(err).Str("order_id", payload.OrderID).Msg("recipient lookup failed, dropping email")
		return nil
	}

	body := fmt.Sprintf("Olá %s,\n\nO pedido %q foi concluído e o valor já está disponível na sua carteira.\n",
		name, payload.ServiceTitle)
	if err := p.client.Send(ctx, email, "Pedido concluído", body); err != nil {
		p.log.Error().Err(err).Str("order_id", payload.OrderID).Msg("completion email failed")
		return err
	}
	return nil
}
