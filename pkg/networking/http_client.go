package networking

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"time"
)

// HTTPTimeout is the timeout for outgoing HTTP requests
const HTTPTimeout = 30 * time.Second

// HTTPClientBuilder provides a fluent interface for building HTTP clients
type HTTPClientBuilder struct {
	clientTimeout         time.Duration
	tlsHandshakeTimeout   time.Duration
	responseHeaderTimeout time.Duration
	caCertPath            string
}

// NewHTTPClientBuilder returns a new HTTPClientBuilder
func NewHTTPClientBuilder() *HTTPClientBuilder {
	return &HTTPClientBuilder{
		clientTimeout:         HTTPTimeout,
		tlsHandshakeTimeout:   10 * time.Second,
		responseHeaderTimeout: 10 * time.Second,
	}
}

// WithTimeout sets the overall request timeout
func (b *HTTPClientBuilder) WithTimeout(timeout time.Duration) *HTTPClientBuilder {
	b.clientTimeout = timeout
	return b
}

// WithCABundle sets the CA certificate bundle path
func (b *HTTPClientBuilder) WithCABundle(path string) *HTTPClientBuilder {
	b.caCertPath = path
	return b
}

// Build creates the configured HTTP client
func (b *HTTPClientBuilder) Build() (*http.Client, error) {
	transport := &http.Transport{
		TLSHandshakeTimeout:   b.tlsHandshakeTimeout,
		ResponseHeaderTimeout: b.responseHeaderTimeout,
	}

	if b.caCertPath != "" {
		caCert, err := os.ReadFile(b.caCertPath) // #nosec G304 - path is provided by the user
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate bundle: %w", err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate bundle")
		}

		transport.TLSClientConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			RootCAs:    caCertPool,
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   b.clientTimeout,
	}, nil
}

// DefaultClient returns an HTTP client with the default timeout profile.
func DefaultClient() *http.Client {
	// Build cannot fail without a CA bundle path.
	client, _ := NewHTTPClientBuilder().Build()
	return client
}
