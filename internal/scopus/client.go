package scopus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/matsen/citgraph/internal/graph"
	"github.com/matsen/citgraph/internal/paper"
)

const (
	// BaseURL is the Scopus Abstract Retrieval API base URL.
	BaseURL = "https://api.elsevier.com/content/abstract"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// RateLimit is 9 requests per second per Elsevier API documentation
	// for the Abstract Retrieval API.
	RateLimit = 9.0

	// DefaultRetries is the number of additional attempts made for
	// retryable failures (quota, transient server errors).
	DefaultRetries = 2

	// retryDelay is the pause between retryable attempts.
	retryDelay = 2 * time.Second
)

// Client is a rate-limited HTTP client for the Scopus Abstract Retrieval
// API. It implements graph.Lookup.
//
// FULL-view retrievals carry the document's outgoing reference list; the
// client caches those lists per Scopus ID so an expansion pass can walk the
// references of papers already retrieved without an extra request.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	insttoken  string
	baseURL    string
	retries    int

	mu   sync.Mutex
	refs map[paper.ScopusID][]paper.Ref
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the Scopus API key.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithInstToken sets the institutional token sent alongside the API key.
func WithInstToken(token string) ClientOption {
	return func(c *Client) {
		c.insttoken = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithRetries sets the number of additional attempts for retryable failures.
func WithRetries(n int) ClientOption {
	return func(c *Client) {
		c.retries = n
	}
}

// NewClient creates a new Scopus Abstract Retrieval client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
		retries:    DefaultRetries,
		refs:       make(map[paper.ScopusID][]paper.Ref),
	}

	// Environment beats nothing, options beat environment
	if key := os.Getenv("SCOPUS_API_KEY"); key != "" {
		c.apiKey = key
	}
	if token := os.Getenv("SCOPUS_INSTTOKEN"); token != "" {
		c.insttoken = token
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// retrieve performs one FULL-view abstract retrieval for the identifier.
func (c *Client) retrieve(ctx context.Context, identifier string, idType paper.IDType) (retrievalResponse, error) {
	var resp retrievalResponse

	if err := c.limiter.Wait(ctx); err != nil {
		return resp, fmt.Errorf("rate limiter: %w", err)
	}

	u := fmt.Sprintf("%s/%s/%s?view=FULL", c.baseURL, idType, url.PathEscape(identifier))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return resp, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-ELS-APIKey", c.apiKey)
	}
	if c.insttoken != "" {
		req.Header.Set("X-ELS-Insttoken", c.insttoken)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return resp, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer httpResp.Body.Close()

	if err := checkHTTPErrors(httpResp, identifier); err != nil {
		return resp, err
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return resp, fmt.Errorf("%w: reading body: %v", ErrInvalidResponse, err)
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return resp, fmt.Errorf("%w: parsing retrieval: %v", ErrInvalidResponse, err)
	}

	return resp, nil
}

// retrieveWithRetry repeats retryable failures a bounded number of times.
func (c *Client) retrieveWithRetry(ctx context.Context, identifier string, idType paper.IDType) (retrievalResponse, error) {
	resp, err := c.retrieve(ctx, identifier, idType)
	for attempt := 0; attempt < c.retries && err != nil && isRetryable(err); attempt++ {
		select {
		case <-ctx.Done():
			return resp, ctx.Err()
		case <-time.After(retryDelay):
		}
		resp, err = c.retrieve(ctx, identifier, idType)
	}
	return resp, err
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response, identifier string) error {
	switch {
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		return fmt.Errorf("%w: status %d", ErrAuthError, resp.StatusCode)
	case resp.StatusCode == 404:
		return fmt.Errorf("%w: %s", ErrNotFound, identifier)
	case resp.StatusCode == 429:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       "api_error",
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
			Identifier: identifier,
		}
	}
	return nil
}

// Resolve retrieves one document and returns its metadata stamped with the
// given iteration depth. Documents that are missing from Scopus, or whose
// retrieval lacks a usable title or Scopus ID, yield (nil, nil) so the build
// engine can count and skip them. Any other error is fatal.
func (c *Client) Resolve(ctx context.Context, identifier string, idType paper.IDType, depth int) (*paper.Paper, error) {
	resp, err := c.retrieveWithRetry(ctx, identifier, idType)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	p, refs, ok := parsePaper(resp, depth)
	if !ok {
		return nil, nil
	}

	c.mu.Lock()
	if _, cached := c.refs[p.ScopusID]; !cached {
		c.refs[p.ScopusID] = refs
	}
	c.mu.Unlock()

	return &p, nil
}

// References resolves the outgoing citations of each frontier paper at the
// given depth. Reference targets that cannot be resolved appear as pairs
// with a nil child; they never abort the pass.
func (c *Client) References(ctx context.Context, frontier []paper.Paper, depth int) ([]graph.RefPair, error) {
	var pairs []graph.RefPair

	for _, parent := range frontier {
		refs, err := c.referencesOf(ctx, parent)
		if err != nil {
			return nil, fmt.Errorf("references of %d: %w", parent.ScopusID, err)
		}

		for _, ref := range refs {
			child, err := c.Resolve(ctx, ref.ScopusID.String(), paper.IDTypeScopus, depth)
			if err != nil {
				return nil, fmt.Errorf("resolving reference %d of %d: %w",
					ref.ScopusID, parent.ScopusID, err)
			}
			pairs = append(pairs, graph.RefPair{Parent: parent, Child: child})
		}
	}

	return pairs, nil
}

// referencesOf returns the cached reference list for a paper, fetching it
// when the paper was not retrieved through this client (e.g. a restored
// graph).
func (c *Client) referencesOf(ctx context.Context, parent paper.Paper) ([]paper.Ref, error) {
	c.mu.Lock()
	refs, cached := c.refs[parent.ScopusID]
	c.mu.Unlock()
	if cached {
		return refs, nil
	}

	resp, err := c.retrieveWithRetry(ctx, parent.ScopusID.String(), paper.IDTypeScopus)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	_, refs, ok := parsePaper(resp, parent.IterDepth)
	if !ok {
		return nil, nil
	}

	c.mu.Lock()
	c.refs[parent.ScopusID] = refs
	c.mu.Unlock()
	return refs, nil
}
