package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/config"
)

const stripeAPIBase = "https://api.stripe.com/v1"

// StripeClient talks to the Stripe Connect API for seller onboarding.
type StripeClient struct {
	secretKey  string
	refreshURL string
	returnURL  string
	baseURL    string
	http       *http.Client
}

// NewStripeClient returns nil when no secret key is configured, which
// disables the onboarding endpoints.
func NewStripeClient(cfg config.StripeConfig) *StripeClient {
	if cfg.SecretKey == "" {
		return nil
	}
	return &StripeClient{
		secretKey:  cfg.SecretKey,
		refreshURL: cfg.RefreshURL,
		returnURL:  cfg.ReturnURL,
		baseURL:    stripeAPIBase,
		http:       &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateAccount creates an Express connected account for a seller.
func (s *StripeClient) CreateAccount(ctx context.Context, email string) (string, error) {
	form := url.Values{}
	form.Set("type", "express")
	form.Set("email", email)
	form.Set("capabilities[transfers][requested]", "true")

	var out struct {
		ID string `json:"id"`
	}
	if err := s.post(ctx, "/accounts", form, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// CreateAccountLink returns a hosted onboarding URL for the account.
func (s *StripeClient) CreateAccountLink(ctx context.Context, accountID string) (string, error) {
	form := url.Values{}
	form.Set("account", accountID)
	form.Set("refresh_url", s.refreshURL)
	form.Set("return_url", s.returnURL)
	form.Set("type", "account_onboarding")

	var out struct {
		URL string `json:"url"`
	}
	if err := s.post(ctx, "/account_links", form, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// AccountChargesEnabled reports whether the connected account finished
// onboarding and can receive transfers.
func (s *StripeClient) AccountChargesEnabled(ctx context.Context, accountID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/accounts/"+accountID, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, stripeError(resp)
	}

	var out struct {
		ChargesEnabled bool `json:"charges_enabled"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.ChargesEnabled, nil
}

func (s *StripeClient) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+s.secretKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return stripeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func stripeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if len(body) > 0 {
		return fmt.Errorf("stripe: status=%d body=%s", resp.StatusCode, body)
	}
	return fmt.Errorf("stripe: status=%d", resp.StatusCode)
}
