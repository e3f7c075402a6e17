package api

import (
	"fmt"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"go.uber.org/zap"

	"github.com/diogo/tacticscoach/internal/models"
)

// DefaultTimeout bounds a whole request, including reading a streamed body
const DefaultTimeout = 300 * time.Second

// DefaultClientProfile is the TLS profile used when none is configured
const DefaultClientProfile = "chrome_120"

// HTTPDoer is the subset of tls_client.HttpClient the client needs
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the tactics assistant backend
type Client struct {
	httpClient HTTPDoer
	baseURL    string
	timeout    time.Duration
	profile    string
	logger     *zap.Logger
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithHTTPClient replaces the transport, mostly for tests
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithBaseURL sets the backend root, e.g. http://127.0.0.1:5000
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithClientProfile selects the TLS client profile by name (see profiles.MappedTLSClients)
func WithClientProfile(name string) ClientOption {
	return func(c *Client) {
		if name != "" {
			c.profile = strings.ToLower(name)
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new Client. Without WithHTTPClient it builds a
// tls-client transport from the configured profile and timeout.
func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		baseURL: models.DefaultBaseURL,
		timeout: DefaultTimeout,
		profile: DefaultClientProfile,
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		httpClient, err := newTLSClient(client.profile, client.timeout)
		if err != nil {
			return nil, err
		}
		client.httpClient = httpClient
	}

	return client, nil
}

func newTLSClient(profileName string, timeout time.Duration) (tls_client.HttpClient, error) {
	profile, ok := profiles.MappedTLSClients[profileName]
	if !ok {
		return nil, fmt.Errorf("unknown client profile %q", profileName)
	}

	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(int(timeout / time.Second)),
		tls_client.WithClientProfile(profile),
		tls_client.WithNotFollowRedirects(),
	}

	httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return httpClient, nil
}

// BaseURL returns the backend root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the request timeout
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

func setHeaders(req *http.Request) {
	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}
}
