package datafabric

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veracity/veracity-sdk-go/pkg/networking"
)

func TestWhoAmIUser(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, User{UserID: "u-1", CompanyID: "c-1", Role: "Reader"})
	})

	client := newTestClient(t, mux)

	principal, err := client.WhoAmI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Principal{ID: "u-1", Type: PrincipalUser, CompanyID: "c-1", Role: "Reader"}, principal)

	// Second call is served from the cache.
	again, err := client.WhoAmI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, principal, again)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWhoAmIApplicationFallback(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/application", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Application{ID: "app-1", CompanyID: "c-1", Role: "ServiceReader"})
	})

	client := newTestClient(t, mux)

	principal, err := client.WhoAmI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PrincipalApplication, principal.Type)
	assert.Equal(t, "app-1", principal.ID)
}

func TestWhoAmIUnresolvable(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client := newTestClient(t, handler)

	_, err := client.WhoAmI(context.Background())
	require.Error(t, err)
	assert.True(t, networking.IsHTTPError(err, http.StatusUnauthorized))
}

func TestGetUserNotFound(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	client := newTestClient(t, handler)

	_, err := client.GetUser(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrUserNotFound)

	// The original HTTP error stays reachable behind the sentinel.
	var httpErr *networking.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestGetSharedUsers(t *testing.T) {
	t.Parallel()

	var gotUserID string
	mux := http.NewServeMux()
	mux.HandleFunc("/users/ResourceDistributionList", func(w http.ResponseWriter, r *http.Request) {
		gotUserID = r.URL.Query().Get("userId")
		writeJSON(w, http.StatusOK, []User{{UserID: "u-2"}, {UserID: "u-3"}})
	})

	client := newTestClient(t, mux)

	users, err := client.GetSharedUsers(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", gotUserID)
	assert.Len(t, users, 2)
}

func TestAddApplicationConflict(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	client := newTestClient(t, handler)

	err := client.AddApplication(context.Background(), Application{ID: "app-1"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUpdateApplicationRole(t *testing.T) {
	t.Parallel()

	var gotMethod, gotRole string
	mux := http.NewServeMux()
	mux.HandleFunc("/application/app-1", func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotRole = r.URL.Query().Get("role")
		writeJSON(w, http.StatusOK, Application{ID: "app-1", Role: r.URL.Query().Get("role")})
	})

	client := newTestClient(t, mux)

	app, err := client.UpdateApplicationRole(context.Background(), "app-1", "DataAdmin")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "DataAdmin", gotRole)
	assert.Equal(t, "DataAdmin", app.Role)
}
