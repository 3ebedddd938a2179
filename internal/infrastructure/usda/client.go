package usda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gizibunda/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultPageSize     = 50
	defaultDataTypes    = "Foundation,SR Legacy,Survey (FNDDS)"
	defaultMaxAttempts  = 3
	defaultRetryBackoff = 500 * time.Millisecond
	defaultPerHour      = 1000

	// error bodies are only logged, never decoded
	maxErrorBodyBytes = 4096
)

// Options configures the USDA client. Zero values fall back to defaults.
type Options struct {
	Timeout         time.Duration
	PageSize        int
	DataTypes       string
	MaxAttempts     int
	RetryBackoff    time.Duration
	RequestsPerHour int
}

// Client handles communication with the USDA FoodData Central API
type Client struct {
	httpClient   *http.Client
	apiKey       string
	baseURL      string
	rateLimiter  *rate.Limiter
	pageSize     int
	dataTypes    string
	maxAttempts  int
	retryBackoff time.Duration
	logger       *zap.Logger
	debug        bool
}

// NewClient creates a new USDA API client
func NewClient(apiKey, baseURL string, opts Options, logger *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.DataTypes == "" {
		opts.DataTypes = defaultDataTypes
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}
	if opts.RequestsPerHour <= 0 {
		opts.RequestsPerHour = defaultPerHour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// rate.Limit is requests per second; USDA quotas are per hour
	limiter := rate.NewLimiter(rate.Limit(float64(opts.RequestsPerHour)/3600.0), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		apiKey:       apiKey,
		baseURL:      baseURL,
		rateLimiter:  limiter,
		pageSize:     opts.PageSize,
		dataTypes:    opts.DataTypes,
		maxAttempts:  opts.MaxAttempts,
		retryBackoff: opts.RetryBackoff,
		logger:       logger.Named("usda"),
	}
}

// SetDebug toggles verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if !c.debug {
		return
	}
	c.logger.Debug(fmt.Sprintf(format, args...))
}

// backoff returns the wait before retrying after the given attempt (1-based):
// base, 2*base, 4*base, ...
func backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<uint(attempt-1))
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

// retryable reports whether a non-200 status is worth another attempt
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "GiziBunda/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUSDAAPIFailure, err)
	}

	return resp, nil
}

// getWithRetry performs a GET and returns the body of the first 200 response.
// Network errors, 429 and 5xx are retried with exponential backoff; other
// statuses fail immediately. 404 maps to ErrProductNotFound.
func (c *Client) getWithRetry(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			wait := backoff(c.retryBackoff, attempt-1)
			c.debugLog("retrying in %s (attempt %d/%d)", wait, attempt, c.maxAttempts)
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrUSDAAPIFailure, err)
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			// request construction errors and cancellation are not transient
			if !errors.Is(err, domain.ErrUSDAAPIFailure) || ctx.Err() != nil {
				return nil, err
			}
			c.logger.Warn("USDA request error",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusOK {
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				lastErr = fmt.Errorf("%w: reading body: %v", domain.ErrUSDAAPIFailure, err)
				continue
			}
			return body, nil
		}

		body, _ := readLimitedBody(resp.Body, maxErrorBodyBytes)
		resp.Body.Close()

		c.logger.Warn("USDA API error",
			zap.Int("attempt", attempt),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)

		if resp.StatusCode == http.StatusNotFound {
			return nil, domain.ErrProductNotFound
		}
		lastErr = fmt.Errorf("%w: status %d", domain.ErrUSDAAPIFailure, resp.StatusCode)
		if !retryable(resp.StatusCode) {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// SearchFoods searches for foods in the USDA database
func (c *Client) SearchFoods(ctx context.Context, query string) (*domain.USDASearchResponse, error) {
	c.debugLog("SearchFoods called with query: %q", query)

	endpoint := fmt.Sprintf("%s/v1/foods/search", c.baseURL)
	params := url.Values{}
	params.Add("query", query)
	params.Add("api_key", c.apiKey)
	params.Add("dataType", c.dataTypes)
	params.Add("pageSize", strconv.Itoa(c.pageSize))

	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	body, err := c.getWithRetry(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var searchResp domain.USDASearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(searchResp.Foods) == 0 {
		c.debugLog("no foods found for query: %q", query)
		return nil, domain.ErrProductNotFound
	}

	c.debugLog("found %d foods for query: %q", len(searchResp.Foods), query)
	return &searchResp, nil
}

// GetFoodDetails retrieves detailed nutrition information for a specific food by FDC ID
func (c *Client) GetFoodDetails(ctx context.Context, fdcID string) (*domain.USDAFood, error) {
	endpoint := fmt.Sprintf("%s/v1/food/%s", c.baseURL, url.PathEscape(fdcID))
	params := url.Values{}
	params.Add("api_key", c.apiKey)

	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	body, err := c.getWithRetry(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var details foodDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return details.toFood(), nil
}

// foodDetails is the /v1/food/{id} shape, which nests nutrient metadata
// unlike the flat search results.
type foodDetails struct {
	FdcID         int    `json:"fdcId"`
	Description   string `json:"description"`
	DataType      string `json:"dataType"`
	FoodClass     string `json:"foodClass"`
	FoodNutrients []struct {
		Nutrient struct {
			ID       int    `json:"id"`
			Number   string `json:"number"`
			Name     string `json:"name"`
			UnitName string `json:"unitName"`
		} `json:"nutrient"`
		Amount float64 `json:"amount"`
	} `json:"foodNutrients"`
}

func (d foodDetails) toFood() *domain.USDAFood {
	food := &domain.USDAFood{
		FdcID:       d.FdcID,
		Description: d.Description,
		DataType:    d.DataType,
		FoodClass:   d.FoodClass,
		Nutrients:   make([]domain.USDANutrient, 0, len(d.FoodNutrients)),
	}
	for _, fn := range d.FoodNutrients {
		food.Nutrients = append(food.Nutrients, domain.USDANutrient{
			NutrientID:     fn.Nutrient.ID,
			NutrientName:   fn.Nutrient.Name,
			NutrientNumber: fn.Nutrient.Number,
			UnitName:       fn.Nutrient.UnitName,
			Value:          fn.Amount,
		})
	}
	return food
}
