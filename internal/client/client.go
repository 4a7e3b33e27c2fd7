// Package client is a typed HTTP client for the orcamento REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"orcamento/internal/core"
)

// ErrUnreachable is returned when the API could not be reached at all.
var ErrUnreachable = errors.New("api unreachable")

const defaultTimeout = 10 * time.Second

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("api url must be http(s)://host, got %q", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ExpenseRequest is a full expense write. An empty ID lets the server
// assign one.
type ExpenseRequest struct {
	ID          string `json:"id,omitempty"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	IsRecurring bool   `json:"isRecurring"`
}

// ExpensePatch is a partial expense update; nil fields are left unchanged.
type ExpensePatch struct {
	Description *string `json:"description,omitempty"`
	Amount      *string `json:"amount,omitempty"`
	Category    *string `json:"category,omitempty"`
	Date        *string `json:"date,omitempty"`
	IsRecurring *bool   `json:"isRecurring,omitempty"`
}

// Health is the body of GET /health.
type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// ListExpenses fetches one page of expenses.
func (c *Client) ListExpenses(ctx context.Context, f core.ExpenseFilterInput) (core.ExpensePage, error) {
	q := url.Values{}
	setIf(q, "category", f.Category)
	setIf(q, "startDate", f.StartDate)
	setIf(q, "endDate", f.EndDate)
	setIf(q, "search", f.Search)
	setIf(q, "page", f.Page)
	setIf(q, "limit", f.Limit)

	var page core.ExpensePage
	_, err := c.do(ctx, http.MethodGet, "/expenses", q, nil, &page)
	return page, err
}

func (c *Client) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	var e core.Expense
	_, err := c.do(ctx, http.MethodGet, "/expenses/"+url.PathEscape(id), nil, nil, &e)
	return e, err
}

// UpsertExpense creates or replaces an expense. created reports a 201.
func (c *Client) UpsertExpense(ctx context.Context, req ExpenseRequest) (e core.Expense, created bool, err error) {
	status, err := c.do(ctx, http.MethodPost, "/expenses", nil, req, &e)
	return e, status == http.StatusCreated, err
}

func (c *Client) UpdateExpense(ctx context.Context, id string, patch ExpensePatch) (core.Expense, error) {
	var e core.Expense
	_, err := c.do(ctx, http.MethodPut, "/expenses/"+url.PathEscape(id), nil, patch, &e)
	return e, err
}

func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/expenses/"+url.PathEscape(id), nil, nil, nil)
	return err
}

func (c *Client) ListBudgets(ctx context.Context) ([]core.BudgetGoal, error) {
	var budgets []core.BudgetGoal
	_, err := c.do(ctx, http.MethodGet, "/budgets", nil, nil, &budgets)
	return budgets, err
}

// SetBudget creates or replaces the monthly limit for category.
func (c *Client) SetBudget(ctx context.Context, category, limit string) (core.BudgetGoal, error) {
	var b core.BudgetGoal
	body := struct {
		Category string `json:"category"`
		Limit    string `json:"limit"`
	}{category, limit}
	_, err := c.do(ctx, http.MethodPut, "/budgets", nil, body, &b)
	return b, err
}

func (c *Client) DeleteBudget(ctx context.Context, category string) error {
	_, err := c.do(ctx, http.MethodDelete, "/budgets/"+url.PathEscape(category), nil, nil, nil)
	return err
}

func (c *Client) Categories(ctx context.Context) ([]core.CategoryBudget, error) {
	var cats []core.CategoryBudget
	_, err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &cats)
	return cats, err
}

// Summary fetches the report for month ("YYYY-MM"), or all time when empty.
func (c *Client) Summary(ctx context.Context, month string) (core.Summary, error) {
	q := url.Values{}
	setIf(q, "month", month)
	var s core.Summary
	_, err := c.do(ctx, http.MethodGet, "/reports/summary", q, nil, &s)
	return s, err
}

func (c *Client) MonthlyTrend(ctx context.Context) ([]core.MonthlyTotal, error) {
	var trend []core.MonthlyTotal
	_, err := c.do(ctx, http.MethodGet, "/reports/monthly", nil, nil, &trend)
	return trend, err
}

// Health reports the API status. A degraded API is not an error: the body
// says so.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	_, err := c.do(ctx, http.MethodGet, "/health", nil, nil, &h)
	if err != nil && errors.Is(err, core.ErrStoreUnavailable) && h.Status != "" {
		return h, nil
	}
	return h, err
}

// do performs a request and decodes a successful body into out. Error
// bodies are mapped back onto the core error taxonomy.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) (int, error) {
	u, err := url.Parse(c.baseURL.String() + path)
	if err != nil {
		return 0, fmt.Errorf("build request url: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %v", ErrUnreachable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: read response: %v", ErrUnreachable, err)
	}

	if resp.StatusCode >= 400 {
		// /health reports degradation with its own body shape.
		if out != nil && resp.StatusCode == http.StatusServiceUnavailable {
			_ = json.Unmarshal(data, out)
		}
		return resp.StatusCode, decodeError(resp.StatusCode, data)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func setIf(q url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		q.Set(key, value)
	}
}
