// Package tfcloud is a minimal client for the HCP Terraform (Terraform
// Cloud) v2 API, covering the surface this tool needs: workspace
// variables, and the organization's project and workspace listings.
//
// API docs: https://developer.hashicorp.com/terraform/cloud-docs/api-docs
package tfcloud

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/hashicorp/jsonapi"

	"github.com/tfve/tfve/internal/httpclient"
	"github.com/tfve/tfve/internal/ratelimit"
)

const (
	// DefaultBaseURL is the HCP Terraform SaaS address. Terraform
	// Enterprise installs override it.
	DefaultBaseURL = "https://app.terraform.io"

	apiBasePath = "api/v2"

	// pageSize is the page size requested from every listing endpoint,
	// the maximum the API allows.
	pageSize = 100
)

// ErrResourceNotFound is returned when the API responds with a 404.
var ErrResourceNotFound = errors.New("resource not found")

// UnexpectedStatusError is any other response status that does not match
// what the call expects. It is never retried at this layer; the caller
// decides whether the operation is safe to re-run.
type UnexpectedStatusError struct {
	Method string
	Path   string
	Status string
	Code   int
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected status for %s %s: %s", e.Method, e.Path, e.Status)
}

// Config collects the settings for NewClient. Token is required.
type Config struct {
	// BaseURL is the scheme and host of the API; DefaultBaseURL if empty.
	BaseURL string

	// Token is the bearer token sent with every request.
	Token string

	// Limiter paces every request the client issues. A default limiter
	// at the published API limit is used if nil.
	Limiter *ratelimit.Limiter

	// Logger receives request-level debug logging.
	Logger hclog.Logger
}

// Client talks to one API host on behalf of one token. All request
// pacing goes through a single shared limiter, including each page of a
// paginated listing.
type Client struct {
	baseURL *url.URL
	token   string
	http    *retryablehttp.Client
	limiter *ratelimit.Limiter
	log     hclog.Logger

	Variables  *Variables
	Workspaces *Workspaces
	Projects   *Projects
}

// NewClient returns a configured Client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("tfcloud: missing API token")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("tfcloud: invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("tfcloud: invalid base URL %q: scheme must be http or https", baseURL)
	}

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.NewDefault()
	}
	log := cfg.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}

	// Transport-level failures are retried; response statuses never are.
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &http.Client{
		Transport: httpclient.NewUserAgentRoundTripper(cleanhttp.DefaultPooledTransport()),
	}
	retryClient.RetryMax = 2
	retryClient.Logger = nil
	retryClient.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return err != nil, nil
	}

	c := &Client{
		baseURL: u,
		token:   cfg.Token,
		http:    retryClient,
		limiter: limiter,
		log:     log,
	}
	c.Variables = &Variables{client: c}
	c.Workspaces = &Workspaces{client: c}
	c.Projects = &Projects{client: c}
	return c, nil
}

// newRequest builds an API request for a path relative to /api/v2.
// A non-nil body is sent as a JSON:API document.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body []byte) (*retryablehttp.Request, error) {
	u := c.baseURL.JoinPath(apiBasePath, path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, u.String(), rawBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", jsonapi.MediaType)
	}
	return req, nil
}

// do paces the request through the limiter, issues it, and checks the
// response status. The response body is open when do returns nil.
func (c *Client) do(req *retryablehttp.Request, wantStatus int) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	c.log.Debug("api request", "method", req.Method, "url", req.URL.String())
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != wantStatus {
		resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, ErrResourceNotFound)
		}
		return nil, &UnexpectedStatusError{
			Method: req.Method,
			Path:   req.URL.Path,
			Status: resp.Status,
			Code:   resp.StatusCode,
		}
	}
	return resp, nil
}
