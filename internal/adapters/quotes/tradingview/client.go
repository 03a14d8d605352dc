// Package tradingview fetches symbol quotes from the TradingView scanner
// endpoint.
package tradingview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/keithkandiawan/personal-finance/internal/apperrors"
)

// Client reads the current close price of "VENUE:TICKER" symbols. The
// endpoint is unauthenticated, so requests are throttled conservatively.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *limiter.Limiter
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: limiter.New(memory.NewStore(), limiter.Rate{
			Period: time.Second,
			Limit:  2,
		}),
	}
}

type symbolOverview struct {
	Close *json.Number `json:"close"`
}

// FetchPrice returns the symbol's close price in base units. A symbol the
// scanner does not know maps to apperrors.ErrNotFound.
func (c *Client) FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/symbol?symbol=%s&fields=close&no_404=true",
		c.baseURL, url.QueryEscape(symbol))

	var overview symbolOverview
	operation := func() error {
		if err := c.throttle(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(apperrors.ErrNotFound)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return backoff.Permanent(fmt.Errorf("quote for %s rejected with %d: %s", symbol, resp.StatusCode, body))
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("quote for %s returned %d", symbol, resp.StatusCode)
		}
		return json.Unmarshal(body, &overview)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return decimal.Zero, err
	}

	if overview.Close == nil {
		return decimal.Zero, fmt.Errorf("%w: no close price for %s", apperrors.ErrNotFound, symbol)
	}
	price, err := decimal.NewFromString(overview.Close.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad close price for %s: %w", symbol, err)
	}
	return price, nil
}

func (c *Client) throttle(ctx context.Context) error {
	for {
		lctx, err := c.limiter.Get(ctx, "tradingview")
		if err != nil {
			return fmt.Errorf("rate limiter failed: %w", err)
		}
		if !lctx.Reached {
			return nil
		}
		wait := time.Until(time.Unix(lctx.Reset, 0))
		if wait <= 0 {
			wait = 50 * time.Millisecond
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
