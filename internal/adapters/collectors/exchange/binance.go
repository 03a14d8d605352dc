// Package exchange reads account balances from a Binance-style spot REST API.
package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
)

// Config carries the REST endpoint and API credentials of one exchange
// account.
type Config struct {
	BaseURL     string
	APIKey      string
	APISecret   string
	AccountName string
}

// Collector fetches spot and flexible-earn balances for one exchange
// account. Requests are signed with HMAC-SHA256 per the exchange's signed
// endpoint convention and throttled to stay under the API weight limits.
type Collector struct {
	cfg     Config
	client  *http.Client
	limiter *limiter.Limiter
	logger  *slog.Logger
}

func NewCollector(cfg Config, logger *slog.Logger) *Collector {
	return &Collector{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		limiter: limiter.New(memory.NewStore(), limiter.Rate{
			Period: time.Second,
			Limit:  5,
		}),
		logger: logger,
	}
}

func (c *Collector) Name() string            { return c.cfg.AccountName }
func (c *Collector) Kind() domain.SourceKind { return domain.SourceExchange }

type spotAccount struct {
	Balances []struct {
		Asset  string `json:"asset"`
		Free   string `json:"free"`
		Locked string `json:"locked"`
	} `json:"balances"`
}

type earnPositions struct {
	Rows []struct {
		Asset       string `json:"asset"`
		TotalAmount string `json:"totalAmount"`
	} `json:"rows"`
}

// Collect aggregates spot (free + locked) and flexible-earn balances per
// asset. Spot is required; an unreachable earn endpoint only drops the earn
// contribution since not every account has earn enabled.
func (c *Collector) Collect(ctx context.Context) ([]domain.Observation, error) {
	totals := make(map[string]decimal.Decimal)

	var spot spotAccount
	if err := c.signedGet(ctx, "/api/v3/account", nil, &spot); err != nil {
		return nil, fmt.Errorf("failed to fetch spot account: %w", err)
	}
	for _, b := range spot.Balances {
		amount, err := sumAmounts(b.Free, b.Locked)
		if err != nil {
			return nil, fmt.Errorf("bad spot amount for %s: %w", b.Asset, err)
		}
		if amount.IsPositive() {
			totals[b.Asset] = totals[b.Asset].Add(amount)
		}
	}

	var earn earnPositions
	if err := c.signedGet(ctx, "/sapi/v1/simple-earn/flexible/position", url.Values{"size": {"100"}}, &earn); err != nil {
		c.logger.Warn("earn positions unavailable",
			slog.String("account", c.cfg.AccountName),
			slog.String("error", err.Error()))
	} else {
		for _, row := range earn.Rows {
			amount, err := decimal.NewFromString(row.TotalAmount)
			if err != nil {
				return nil, fmt.Errorf("bad earn amount for %s: %w", row.Asset, err)
			}
			if amount.IsPositive() {
				totals[row.Asset] = totals[row.Asset].Add(amount)
			}
		}
	}

	observations := make([]domain.Observation, 0, len(totals))
	for asset, quantity := range totals {
		observations = append(observations, domain.Observation{
			Kind:        domain.SourceExchange,
			AccountName: c.cfg.AccountName,
			Symbol:      asset,
			Quantity:    quantity,
		})
	}
	return observations, nil
}

// signedGet performs a signed request with bounded retries on transient
// failures. 4xx responses are permanent: retrying a bad signature or an
// expired timestamp window only burns request weight.
func (c *Collector) signedGet(ctx context.Context, path string, params url.Values, out any) error {
	operation := func() error {
		if err := c.throttle(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := c.buildRequest(ctx, path, params)
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
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, body))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s returned %d", path, resp.StatusCode)
		}
		return json.Unmarshal(body, out)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(operation, policy)
}

func (c *Collector) buildRequest(ctx context.Context, path string, params url.Values) (*http.Request, error) {
	query := url.Values{}
	for key, values := range params {
		query[key] = values
	}
	query.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	query.Set("recvWindow", "5000")

	// The signature covers the exact payload as transmitted, so it is
	// appended after signing rather than re-encoded into the query.
	payload := query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+path+"?"+payload+"&signature="+c.sign(payload), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", c.cfg.APIKey)
	return req, nil
}

func (c *Collector) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.APISecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// throttle blocks until the outbound rate limit admits another request.
func (c *Collector) throttle(ctx context.Context) error {
	for {
		lctx, err := c.limiter.Get(ctx, c.cfg.AccountName)
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

func sumAmounts(values ...string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, v := range values {
		amount, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(amount)
	}
	return total, nil
}
