package datafabric

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veracity/veracity-sdk-go/pkg/identity"
	"github.com/veracity/veracity-sdk-go/pkg/networking"
)

// Fixed instant shared by the package tests; clients are pinned to it
// so expiry arithmetic is deterministic.
var (
	testNow    = time.Date(2023, time.March, 10, 12, 0, 0, 0, time.UTC)
	futureTime = testNow.Add(2 * time.Hour)
	pastTime   = testNow.Add(-2 * time.Hour)
)

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
	}, opts...)
	client := New(identity.NewStaticTokenCredential("test-token"), "test-subscription-key", opts...)
	client.now = func() time.Time { return testNow }
	return client
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func readJSONBody(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func TestClientSendsAPIHeaders(t *testing.T) {
	t.Parallel()

	var gotAuth, gotKey string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		writeJSON(w, http.StatusOK, User{UserID: "u-1"})
	})

	client := newTestClient(t, handler)
	_, err := client.GetCurrentUser(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "test-subscription-key", gotKey)
}

func TestClientSurfacesHTTPErrors(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream broke"))
	})

	client := newTestClient(t, handler)
	_, err := client.GetCurrentUser(context.Background())
	require.Error(t, err)

	var httpErr *networking.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Contains(t, string(httpErr.Body), "upstream broke")
}

func TestClientDefaultEndpoints(t *testing.T) {
	t.Parallel()

	cfg := newConfig(nil)
	assert.Equal(t, "https://api.veracity.com/veracity/datafabric/data/api/1", cfg.baseURL)
	assert.Equal(t, "https://api.veracity.com/veracity/datafabric/provisioning/api/1", cfg.provisionURL)
	assert.Equal(t, identity.ScopeDataFabric, cfg.scope)
}
