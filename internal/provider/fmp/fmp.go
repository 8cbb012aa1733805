package fmp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/stockwatch/internal/core"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL  = "https://financialmodelingprep.com/api/v3"
	DefaultExchange = "NASDAQ"
)

// validSymbol matches tickers like AAPL, BRK.B, BRK-B
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9]{1,10}([.-][A-Za-z0-9]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return core.WrapError(core.ErrInvalidInput, nil)
	}
	if !validSymbol.MatchString(symbol) {
		return core.WrapError(core.ErrInvalidInput, fmt.Errorf("invalid symbol format: %s", symbol))
	}
	return nil
}

// Recorder receives one notification per request.
type Recorder interface {
	RecordProviderRequest(endpoint, status string)
}

// Config holds client settings
type Config struct {
	BaseURL string
	APIKey  string
}

// Client is a Financial Modeling Prep REST client. It sets no timeout of its
// own; callers bound requests through the context.
type Client struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	logger   *zap.Logger
	recorder Recorder
}

// New creates a new FMP client
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		client:  &http.Client{},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// SetRecorder attaches a metrics recorder
func (c *Client) SetRecorder(r Recorder) {
	c.recorder = r
}

// SetHTTPClient replaces the underlying http client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.client = hc
}

// Search queries companies by name or symbol on one exchange.
func (c *Client) Search(ctx context.Context, query string, limit int, exchange string) ([]SearchResult, error) {
	return c.search(ctx, "search", query, limit, exchange)
}

// SearchTicker queries by ticker symbol only.
func (c *Client) SearchTicker(ctx context.Context, query string, limit int, exchange string) ([]SearchResult, error) {
	return c.search(ctx, "search-ticker", query, limit, exchange)
}

func (c *Client) search(ctx context.Context, endpoint, query string, limit int, exchange string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))
	if exchange != "" {
		params.Set("exchange", exchange)
	}

	var results []SearchResult
	if err := c.get(ctx, endpoint, "/"+endpoint, params, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// FetchQuote fetches the current price and day change
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*core.Quote, error) {
	symbol = core.NormalizeSymbol(symbol)
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}

	var result []quoteResponse
	if err := c.get(ctx, "quote", "/quote/"+url.PathEscape(symbol), nil, &result); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, core.WrapError(core.ErrNotFound, fmt.Errorf("no quote for %s", symbol))
	}

	q := result[0]
	quote := &core.Quote{
		Symbol:        symbol,
		Name:          q.Name,
		Price:         q.Price,
		Change:        q.Change,
		ChangePercent: q.ChangesPercentage,
	}
	// Delisted tickers come back as a zero-priced entry.
	if !quote.IsValid() {
		return nil, core.WrapError(core.ErrNotFound, fmt.Errorf("no price for %s", symbol))
	}
	return quote, nil
}

// FetchHistory fetches the last days closing prices, oldest first
func (c *Client) FetchHistory(ctx context.Context, symbol string, days int) ([]core.PricePoint, error) {
	symbol = core.NormalizeSymbol(symbol)
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("serietype", "line")
	params.Set("timeseries", strconv.Itoa(days))

	var result historyResponse
	if err := c.get(ctx, "historical-price-full", "/historical-price-full/"+url.PathEscape(symbol), params, &result); err != nil {
		return nil, err
	}

	// The provider answers newest first.
	points := make([]core.PricePoint, 0, len(result.Historical))
	for i := len(result.Historical) - 1; i >= 0; i-- {
		h := result.Historical[i]
		t, err := time.Parse(time.DateOnly, h.Date)
		if err != nil {
			c.logger.Debug("skipping history point", zap.String("date", h.Date), zap.Error(err))
			continue
		}
		points = append(points, core.PricePoint{Date: t, Close: h.Close})
	}
	return points, nil
}

// FetchIncomeStatements fetches annual income statements, most recent first
func (c *Client) FetchIncomeStatements(ctx context.Context, symbol string) ([]core.IncomeStatement, error) {
	symbol = core.NormalizeSymbol(symbol)
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}

	var result []incomeResponse
	if err := c.get(ctx, "income-statement", "/income-statement/"+url.PathEscape(symbol), nil, &result); err != nil {
		return nil, err
	}

	statements := make([]core.IncomeStatement, 0, len(result))
	for _, r := range result {
		t, err := time.Parse(time.DateOnly, r.Date)
		if err != nil {
			c.logger.Debug("skipping income statement", zap.String("date", r.Date), zap.Error(err))
			continue
		}
		statements = append(statements, core.IncomeStatement{
			Date:        t,
			Revenue:     r.Revenue,
			GrossProfit: r.GrossProfit,
			EPS:         r.EPS,
		})
	}
	return statements, nil
}

// get issues one GET and decodes the JSON body into out. Quota exhaustion,
// whether signalled by status or by an error-shaped payload, is returned as
// core.ErrQuotaExceeded.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.record(endpoint, "error")
		return core.WrapError(core.ErrProviderFailed, fmt.Errorf("%s: %w", endpoint, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(endpoint, "error")
		return core.WrapError(core.ErrProviderFailed, fmt.Errorf("%s: reading body: %w", endpoint, err))
	}

	if isQuotaStatus(resp.StatusCode) {
		c.record(endpoint, "quota")
		c.logger.Warn("provider quota exhausted",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
		)
		return core.WrapError(core.ErrQuotaExceeded, fmt.Errorf("%s: status %d: %s", endpoint, resp.StatusCode, errorMessage(body)))
	}
	if resp.StatusCode != http.StatusOK {
		c.record(endpoint, "error")
		return core.WrapError(core.ErrProviderFailed, fmt.Errorf("%s: unexpected status: %d", endpoint, resp.StatusCode))
	}

	if msg := errorMessage(body); msg != "" {
		c.record(endpoint, "quota")
		c.logger.Warn("provider returned error payload",
			zap.String("endpoint", endpoint),
			zap.String("message", msg),
		)
		return core.WrapError(core.ErrQuotaExceeded, fmt.Errorf("%s: %s", endpoint, msg))
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.record(endpoint, "error")
		return core.WrapError(core.ErrProviderFailed, fmt.Errorf("%s: decoding response: %w", endpoint, err))
	}

	c.record(endpoint, "ok")
	return nil
}

func (c *Client) record(endpoint, status string) {
	if c.recorder != nil {
		c.recorder.RecordProviderRequest(endpoint, status)
	}
}

func isQuotaStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden || code == http.StatusTooManyRequests
}

// errorMessage extracts the provider's error payload, which replaces the
// expected array with {"Error Message": "..."}. It returns "" for any other
// body.
func errorMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ""
	}
	var payload errorPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return ""
	}
	return payload.ErrorMessage
}
