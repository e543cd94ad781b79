package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tickerdash/internal/market/candle"

	"golang.org/x/time/rate"
)

// MaxKlineLimit is the largest page the klines endpoint serves.
const MaxKlineLimit = 1000

type RESTClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewRESTClient creates a client for the spot REST API. ratePerSec <= 0
// disables client-side throttling.
func NewRESTClient(baseURL string, timeout time.Duration, ratePerSec float64) *RESTClient {
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	return &RESTClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// GetKlines fetches the most recent `limit` candles, oldest first. The last
// row is usually the still-forming bucket.
func (c *RESTClient) GetKlines(ctx context.Context, symbol string, interval KlineInterval, limit int) ([]candle.Candle, error) {
	if !interval.IsValid() {
		return nil, fmt.Errorf("invalid KlineInterval: %s", interval)
	}
	if limit <= 0 || limit > MaxKlineLimit {
		return nil, fmt.Errorf("limit %d out of range 1..%d", limit, MaxKlineLimit)
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", string(interval))
	q.Set("limit", strconv.Itoa(limit))

	var raw [][]json.RawMessage
	if err := c.get(ctx, "/api/v3/klines", q, &raw); err != nil {
		return nil, err
	}

	klines, err := ParseKlineList(raw)
	if err != nil {
		return nil, fmt.Errorf("parse result: %w", err)
	}
	return klines, nil
}

func (c *RESTClient) get(ctx context.Context, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(body, apiErr) != nil || apiErr.Msg == "" {
			apiErr.Msg = string(body)
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
