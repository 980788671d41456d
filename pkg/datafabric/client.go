package datafabric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/veracity/veracity-sdk-go/pkg/identity"
	"github.com/veracity/veracity-sdk-go/pkg/networking"
)

const (
	// DefaultBaseURL is the Data Fabric data API root.
	DefaultBaseURL = "https://api.veracity.com/veracity/datafabric/data/api/1"

	// DefaultProvisioningURL is the Data Fabric provisioning API root.
	DefaultProvisioningURL = "https://api.veracity.com/veracity/datafabric/provisioning/api/1"
)

// maxResponseBody bounds how much of a response is read.
const maxResponseBody = 10 << 20

type clientConfig struct {
	baseURL      string
	provisionURL string
	httpClient   *http.Client
	scope        string
	policy       SASExpiryPolicy
	now          func() time.Time
}

// Option configures a Client or ProvisionClient.
type Option func(*clientConfig)

// WithBaseURL points the client at a different data API root.
func WithBaseURL(baseURL string) Option {
	return func(c *clientConfig) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithProvisioningURL points a ProvisionClient at a different
// provisioning API root.
func WithProvisioningURL(baseURL string) Option {
	return func(c *clientConfig) { c.provisionURL = strings.TrimSuffix(baseURL, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = client }
}

// WithScope overrides the scope tokens are requested for.
func WithScope(scope string) Option {
	return func(c *clientConfig) { c.scope = scope }
}

// WithSASExpiryPolicy controls when cached SAS keys are evicted.
func WithSASExpiryPolicy(policy SASExpiryPolicy) Option {
	return func(c *clientConfig) { c.policy = policy }
}

func newConfig(opts []Option) *clientConfig {
	cfg := &clientConfig{
		baseURL:      DefaultBaseURL,
		provisionURL: DefaultProvisioningURL,
		scope:        identity.ScopeDataFabric,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = networking.DefaultClient()
	}
	return cfg
}

// Client calls the Data Fabric data API. It wraps the resource,
// access, user, key-template and steward endpoints, resolves the best
// grant the caller holds, and caches SAS keys and grant lists per
// resource. Safe for concurrent use.
type Client struct {
	rest   rest
	policy SASExpiryPolicy
	now    func() time.Time

	mu          sync.Mutex
	principal   *Principal
	sasCache    map[string]*SASKey
	accessCache map[string][]Access
}

// New creates a Data Fabric client. Every request carries the
// subscription key and a bearer token minted from the credential.
func New(cred identity.Credential, subscriptionKey string, opts ...Option) *Client {
	cfg := newConfig(opts)
	return &Client{
		rest:        newREST(cfg.baseURL, cred, subscriptionKey, cfg.scope, cfg.httpClient),
		policy:      cfg.policy,
		now:         cfg.now,
		sasCache:    make(map[string]*SASKey),
		accessCache: make(map[string][]Access),
	}
}

// apiTransport decorates every request with the API management
// subscription key and a bearer token.
type apiTransport struct {
	base            http.RoundTripper
	subscriptionKey string
	source          oauth2.TokenSource
}

func (t *apiTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.source.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire Data Fabric token: %w", err)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("Ocp-Apim-Subscription-Key", t.subscriptionKey)
	tok.SetAuthHeader(clone)
	return t.base.RoundTrip(clone)
}

// rest is the request plumbing shared by the data and provisioning
// clients.
type rest struct {
	baseURL string
	client  *http.Client
}

func newREST(baseURL string, cred identity.Credential, subscriptionKey, scope string, base *http.Client) rest {
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return rest{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: base.Timeout,
			Transport: &apiTransport{
				base:            transport,
				subscriptionKey: subscriptionKey,
				source:          identity.TokenSource(context.Background(), cred, scope),
			},
		},
	}
}

// do issues a request and returns the response body. Non-2xx statuses
// come back as *networking.HTTPError carrying the body and headers.
func (r *rest) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	requestURL := r.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", requestURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &networking.HTTPError{
			StatusCode: resp.StatusCode,
			URL:        requestURL,
			Message:    http.StatusText(resp.StatusCode),
			Body:       payload,
			Header:     resp.Header,
		}
	}
	return payload, nil
}

// doJSON issues a request and decodes the JSON response into out, when
// out is non-nil.
func (r *rest) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	payload, err := r.do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode response from %s%s: %w", r.baseURL, path, err)
	}
	return nil
}
