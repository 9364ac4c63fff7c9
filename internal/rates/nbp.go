// Package rates converts minor-unit amounts to the PLN reference currency
// using the NBP (Narodowy Bank Polski) table A mid-market rate.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"payreports/internal/common/money"
)

// ErrUnavailable is returned when the rate source cannot be reached or
// answers with a non-success response.
var ErrUnavailable = errors.New("exchange rate service unavailable")

// Config holds rate gateway configuration.
type Config struct {
	BaseURL string        `envconfig:"RATES_BASE_URL" default:"https://api.nbp.pl"`
	Timeout time.Duration `envconfig:"RATES_TIMEOUT" default:"10s"`
}

// Client fetches mid-market rates over HTTP.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a new rate client.
func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Convert returns the PLN equivalent of amount, truncated toward zero.
// Amounts already in PLN are returned unchanged without any external call.
func (c *Client) Convert(ctx context.Context, amount money.Money) (int64, error) {
	if amount.Currency == money.Reference {
		return amount.AmountMinor, nil
	}

	mid, err := c.midRate(ctx, amount.Currency)
	if err != nil {
		return 0, err
	}

	return int64(float64(amount.AmountMinor) * mid), nil
}

// midRate fetches the current table A mid rate for currency against PLN.
func (c *Client) midRate(ctx context.Context, currency money.Currency) (float64, error) {
	url := fmt.Sprintf("%s/api/exchangerates/rates/a/%s?format=json",
		c.config.BaseURL, strings.ToLower(string(currency)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("rate lookup failed", "currency", currency, "error", err)
		return 0, fmt.Errorf("fetching %s rate: %w", currency, ErrUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("rate lookup failed", "currency", currency, "error", err)
		return 0, fmt.Errorf("reading %s rate: %w", currency, ErrUnavailable)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("rate lookup rejected",
			"currency", currency,
			"status", resp.StatusCode,
		)
		return 0, fmt.Errorf("fetching %s rate: status %d: %w", currency, resp.StatusCode, ErrUnavailable)
	}

	var payload struct {
		Rates []struct {
			Mid float64 `json:"mid"`
		} `json:"rates"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Rates) == 0 {
		return 0, fmt.Errorf("decoding %s rate: %w", currency, ErrUnavailable)
	}

	mid := payload.Rates[0].Mid

	c.logger.Debug("rate fetched", "currency", currency, "mid", mid)

	return mid, nil
}
