package identity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/veracity/veracity-sdk-go/pkg/logger"
)

// RedirectListener is a single-use HTTP listener that captures the
// query parameters of the first sign-in redirect it receives.
type RedirectListener struct {
	server *http.Server
	addr   string

	params chan map[string]string
	errs   chan error
}

// NewRedirectListener starts a listener bound to the redirect URI's
// host and port. The port defaults to 80 for http and 443 for https
// when the URI does not name one.
func NewRedirectListener(redirectURI string) (*RedirectListener, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid redirect URI %q: %v", ErrListenerStart, redirectURI, err)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: redirect URI %q has no host", ErrListenerStart, redirectURI)
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListenerStart, err)
	}

	l := &RedirectListener{
		addr:   ln.Addr().String(),
		params: make(chan map[string]string, 1),
		errs:   make(chan error, 1),
	}
	l.server = &http.Server{
		Handler:           http.HandlerFunc(l.handleRedirect),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.errs <- fmt.Errorf("%w: %v", ErrListenerStart, err)
		}
	}()

	return l, nil
}

// Addr returns the address the listener is bound to.
func (l *RedirectListener) Addr() string {
	return l.addr
}

// Wait blocks until the redirect arrives, the timeout elapses, or the
// context is cancelled.
func (l *RedirectListener) Wait(ctx context.Context, timeout time.Duration) (map[string]string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case params := <-l.params:
		return params, nil
	case err := <-l.errs:
		return nil, err
	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", ErrRedirectTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts the listener down.
func (l *RedirectListener) Close() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.server.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("Failed to shut down redirect listener: %v", err)
	}
}

// handleRedirect responds to the browser. Requests without query
// parameters (favicon probes and the like) get 204 and keep the
// listener waiting; the first request carrying parameters completes it.
func (l *RedirectListener) handleRedirect(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if len(query) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	// Only the first value of each parameter is meaningful.
	params := make(map[string]string, len(query))
	for key, values := range query {
		params[key] = values[0]
	}

	writeCompletionPage(w)

	select {
	case l.params <- params:
	default:
		// A result is already pending; drop the extra redirect.
	}
}

func writeCompletionPage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")

	const page = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Veracity</title></head>
<body>
<p>Sign-in complete. You can close this window and return to the application.</p>
</body>
</html>`
	if _, err := w.Write([]byte(page)); err != nil {
		logger.Warnf("Failed to write sign-in completion page: %v", err)
	}
}
