package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quizarena/settlement/internal/config"
	"github.com/quizarena/settlement/pkg/clients"
	"go.uber.org/zap"
)

// Payout statuses reported by the provider.
const (
	PayoutProcessing = "processing"
	PayoutCompleted  = "completed"
	PayoutFailed     = "failed"
)

const callTimeout = 10 * time.Second

// ErrUnavailable wraps transport-level failures. A timeout on payout
// creation is an unknown outcome: callers must query the payout by its
// idempotency key before resubmitting.
var ErrUnavailable = errors.New("payment provider unavailable")

type Account struct {
	AccountID     string `json:"account_id"`
	OnboardingURL string `json:"onboarding_url"`
	KycStatus     string `json:"kyc_status"`
}

type Payout struct {
	PayoutID    string `json:"payout_id"`
	AccountID   string `json:"account_id"`
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"`
}

type Client struct {
	url    string
	client clients.HTTPClientI
}

func New(cfg *config.Config, client clients.HTTPClientI) *Client {
	return &Client{
		url:    cfg.ProviderAddress,
		client: client,
	}
}

// CreateAccount starts provider-side onboarding for a user.
func (c *Client) CreateAccount(ctx context.Context, userID int) (*Account, error) {
	body, _ := json.Marshal(map[string]int{"user_id": userID})
	var account Account
	if err := c.post(ctx, c.url+"/api/accounts", "", body, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// CreatePayout submits a payout. The idempotency key makes a resubmission
// with the same key return the original payout instead of paying twice.
func (c *Client) CreatePayout(ctx context.Context, accountID string, amountCents int64, idempotencyKey string) (*Payout, error) {
	body, _ := json.Marshal(map[string]any{
		"account_id":   accountID,
		"amount_cents": amountCents,
	})
	var payout Payout
	if err := c.post(ctx, c.url+"/api/payouts", idempotencyKey, body, &payout); err != nil {
		return nil, err
	}
	return &payout, nil
}

// GetPayout looks a payout up by its idempotency key. Returns nil when the
// provider has no record of it, meaning the original submission never landed.
func (c *Client) GetPayout(ctx context.Context, idempotencyKey string) (*Payout, error) {
	statusCode, respBody, _, err := c.client.Get(c.url+"/api/payouts/"+idempotencyKey, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	switch statusCode {
	case http.StatusOK:
		var payout Payout
		if err := json.Unmarshal(respBody, &payout); err != nil {
			return nil, fmt.Errorf("failed to parse payout response: %w", err)
		}
		return &payout, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		zap.L().Error("unexpected provider status", zap.Int("status", statusCode))
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, statusCode)
	}
}

func (c *Client) post(ctx context.Context, url, idempotencyKey string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		zap.L().Error("unexpected provider status", zap.Int("status", resp.StatusCode), zap.String("url", url))
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return json.Unmarshal(respBody, out)
}
