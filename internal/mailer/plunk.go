package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/config"
)

// PlunkClient sends transactional email through the Plunk HTTP API.
type PlunkClient struct {
	apiKey  string
	from    string
	replyTo string
	apiURL  string
	http    *http.Client
}

// NewPlunkClient returns nil when no API key is configured; callers
// treat a nil client as email disabled.
func NewPlunkClient(cfg config.MailConfig) *PlunkClient {
	if cfg.PlunkAPIKey == "" {
		return nil
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = "https://api.useplunk.com/v1/send"
	}
	return &PlunkClient{
		apiKey:  cfg.PlunkAPIKey,
		from:    cfg.From,
		replyTo: cfg.ReplyTo,
		apiURL:  apiURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type plunkSendBody struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	From    string `json:"from,omitempty"`
	Reply   string `json:"reply,omitempty"`
}

func (p *PlunkClient) Send(ctx context.Context, to, subject, body string) error {
	payload := plunkSendBody{
		To:      to,
		Subject: subject,
		Body:    body,
		From:    p.from,
		Reply:   p.replyTo,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if len(detail) > 0 {
			return fmt.Errorf("plunk send failed: status=%d body=%s", resp.StatusCode, detail)
		}
		return fmt.Errorf("plunk send failed: status=%d", resp.StatusCode)
	}
	return nil
}
