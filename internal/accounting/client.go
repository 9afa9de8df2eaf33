package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/ledgerly/internal/config"
	"github.com/MrJamesThe3rd/ledgerly/internal/record"
)

const (
	resourceExpenses = "expenses"
	resourceInvoices = "invoices"
	resourcePayments = "payments"

	defaultPageSize = 100
	defaultMaxPages = 500

	// maxBodySize caps a single page response.
	maxBodySize = 32 << 20
)

// Filter narrows a fetch. Dates are sent to the upstream as a hint only;
// callers re-apply their own interval filter.
type Filter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    string
}

type Options struct {
	BaseURL  string
	Token    string
	PageSize int
	MaxPages int
	Timeout  time.Duration
	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
}

// Client talks to the remote accounting API.
type Client struct {
	baseURL  string
	token    string
	pageSize int
	maxPages int
	client   *http.Client
}

// NewClient validates the connection settings and builds a Client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, config.Missing("ACCOUNTING_API_URL")
	}

	if strings.TrimSpace(opts.Token) == "" {
		return nil, config.Missing("ACCOUNTING_API_TOKEN")
	}

	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("parsing ACCOUNTING_API_URL: %w", err)
	}

	c := &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		token:    opts.Token,
		pageSize: opts.PageSize,
		maxPages: opts.MaxPages,
		client:   opts.HTTPClient,
	}

	if c.pageSize <= 0 {
		c.pageSize = defaultPageSize
	}

	if c.maxPages <= 0 {
		c.maxPages = defaultMaxPages
	}

	if c.client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}

		c.client = &http.Client{Timeout: timeout}
	}

	return c, nil
}

// FetchExpenses returns every expense matching the filter across all pages.
func (c *Client) FetchExpenses(ctx context.Context, filter Filter) ([]record.Record, error) {
	return c.fetch(ctx, resourceExpenses, record.KindExpense, filter)
}

// FetchInvoices returns every invoice matching the filter across all pages.
func (c *Client) FetchInvoices(ctx context.Context, filter Filter) ([]record.Record, error) {
	return c.fetch(ctx, resourceInvoices, record.KindInvoice, filter)
}

// FetchPayments returns every payment matching the filter across all pages.
func (c *Client) FetchPayments(ctx context.Context, filter Filter) ([]record.Record, error) {
	return c.fetch(ctx, resourcePayments, record.KindPayment, filter)
}

// Ping requests a single expense to check connectivity and credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.fetchPage(ctx, resourceExpenses, Filter{}, 1, 1)
	return err
}

func (c *Client) fetch(ctx context.Context, resource string, kind record.Kind, filter Filter) ([]record.Record, error) {
	var records []record.Record

	for raws, err := range c.Pages(ctx, resource, filter) {
		if err != nil {
			return nil, err
		}

		records = append(records, NormalizeAll(kind, raws)...)
	}

	return records, nil
}

// Pages lazily walks the pages of a resource. It stops after the last page,
// known from total_pages or from a short page, and fails with ErrTooManyPages
// once MaxPages pages have been read without reaching the end.
func (c *Client) Pages(ctx context.Context, resource string, filter Filter) iter.Seq2[[]RawRecord, error] {
	return func(yield func([]RawRecord, error) bool) {
		for page := 1; ; page++ {
			if page > c.maxPages {
				yield(nil, fmt.Errorf("%w: %s: %w after %d pages", ErrUpstream, resource, ErrTooManyPages, c.maxPages))
				return
			}

			p, err := c.fetchPage(ctx, resource, filter, page, c.pageSize)
			if err != nil {
				yield(nil, err)
				return
			}

			if !yield(p.records, nil) {
				return
			}

			if p.totalPages > 0 {
				if page >= p.totalPages {
					return
				}

				continue
			}

			if len(p.records) < c.pageSize {
				return
			}
		}
	}
}

type pageResult struct {
	records    []RawRecord
	totalPages int // zero when the upstream does not say
}

func (c *Client) fetchPage(ctx context.Context, resource string, filter Filter, page, perPage int) (pageResult, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	if filter.StartDate != nil {
		q.Set("start_date", filter.StartDate.Format(time.DateOnly))
	}

	if filter.EndDate != nil {
		q.Set("end_date", filter.EndDate.Format(time.DateOnly))
	}

	if filter.Status != "" {
		q.Set("status", filter.Status)
	}

	endpoint := c.baseURL + "/" + resource + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pageResult{}, fmt.Errorf("%w: creating request: %w", ErrUpstream, err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return pageResult{}, fmt.Errorf("%w: executing request for %s: %w", ErrUpstream, resource, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return pageResult{}, fmt.Errorf("%w: reading %s page %d: %w", ErrUpstream, resource, page, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pageResult{}, &StatusError{
			Resource:   resource,
			StatusCode: resp.StatusCode,
			Body:       snippet(body),
		}
	}

	result, err := decodePage(body)
	if err != nil {
		return pageResult{}, fmt.Errorf("%w: decoding %s page %d: %w", ErrUpstream, resource, page, err)
	}

	return result, nil
}

// envelope covers the paginated shapes seen upstream:
// {"data": [...], "meta": {"total_pages": N}}, {"data": [...], "pagination": {...}}
// and {"data": [...], "total_pages": N}.
type envelope struct {
	Data       []RawRecord `json:"data"`
	TotalPages int         `json:"total_pages"`
	Meta       struct {
		TotalPages int `json:"total_pages"`
	} `json:"meta"`
	Pagination struct {
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
}

func decodePage(body []byte) (pageResult, error) {
	trimmed := bytes.TrimSpace(body)

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []RawRecord
		if err := dec.Decode(&items); err != nil {
			return pageResult{}, err
		}

		return pageResult{records: items}, nil
	}

	var env envelope
	if err := dec.Decode(&env); err != nil {
		return pageResult{}, err
	}

	total := env.Meta.TotalPages
	if total == 0 {
		total = env.Pagination.TotalPages
	}

	if total == 0 {
		total = env.TotalPages
	}

	return pageResult{records: env.Data, totalPages: total}, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}

	return s
}
