package datafabric

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// accessFixture serves a user profile and a mutable grant list for one
// resource, recording share posts so tests can assert idempotency.
type accessFixture struct {
	mu        sync.Mutex
	me        User
	grants    []Access
	templates []KeyTemplate
	posts     int
	revokes   int
}

func (f *accessFixture) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, f.me)
	})
	mux.HandleFunc("/keytemplates", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, f.templates)
	})
	mux.HandleFunc("/resources/r-1/accesses", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, AccessPage{
				Results:      f.grants,
				Page:         1,
				TotalResults: len(f.grants),
			})
		case http.MethodPost:
			f.posts++
			var body shareAccessBody
			_ = readJSONBody(r, &body)
			f.grants = append(f.grants, Access{
				Privileges:      f.templatePrivileges(body.AccessKeyTemplateID),
				UserID:          body.UserID,
				GrantedByID:     f.me.UserID,
				AccessSharingID: "share-new",
				AutoRefreshed:   r.URL.Query().Get("autoRefreshed") == "true",
			})
			writeJSON(w, http.StatusOK, map[string]string{"accessSharingId": "share-new"})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/resources/r-1/accesses/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		f.mu.Lock()
		f.revokes++
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (f *accessFixture) templatePrivileges(templateID string) Privileges {
	for _, tmpl := range f.templates {
		if tmpl.ID == templateID {
			return tmpl.Privileges
		}
	}
	return Privileges{}
}

func TestGetBestAccessRanking(t *testing.T) {
	t.Parallel()

	fixture := &accessFixture{
		me: User{UserID: "me"},
		grants: []Access{
			{
				// Highest level but expired, so not usable.
				Privileges:       Privileges{Read: true, Write: true, Delete: true, List: true},
				UserID:           "me",
				AccessSharingID:  "expired-full",
				KeyExpiryTimeUTC: Timestamp{Time: pastTime},
			},
			{
				// Someone else's grant.
				Privileges:      Privileges{Delete: true},
				UserID:          "someone-else",
				AccessSharingID: "other-delete",
				AutoRefreshed:   true,
			},
			{
				Privileges:      Privileges{Write: true, List: true},
				UserID:          "me",
				AccessSharingID: "mine-write-list",
				AutoRefreshed:   true,
			},
			{
				Privileges:       Privileges{Read: true},
				UserID:           "me",
				AccessSharingID:  "mine-read",
				KeyExpiryTimeUTC: Timestamp{Time: futureTime},
			},
			{
				// Never had a key issued and does not refresh.
				Privileges:      Privileges{Delete: true},
				UserID:          "me",
				AccessSharingID: "mine-dormant",
			},
		},
	}

	client := newTestClient(t, fixture.handler())

	best, ok, err := client.GetBestAccess(context.Background(), "r-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "mine-read", best.AccessSharingID)
	assert.Equal(t, 4, best.Level())
}

func TestGetBestAccessPrefersFirstAmongEqualLevels(t *testing.T) {
	t.Parallel()

	fixture := &accessFixture{
		me: User{UserID: "me"},
		grants: []Access{
			{Privileges: Privileges{Read: true}, UserID: "me", AccessSharingID: "grant-a", AutoRefreshed: true},
			{Privileges: Privileges{Read: true}, UserID: "me", AccessSharingID: "grant-b", AutoRefreshed: true},
		},
	}

	client := newTestClient(t, fixture.handler())

	best, ok, err := client.GetBestAccess(context.Background(), "r-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "grant-a", best.AccessSharingID)
}

func TestGetBestAccessNoneUsable(t *testing.T) {
	t.Parallel()

	fixture := &accessFixture{
		me: User{UserID: "me"},
		grants: []Access{
			{Privileges: Privileges{Read: true}, UserID: "someone-else", AutoRefreshed: true},
			{Privileges: Privileges{Write: true}, UserID: "me", KeyExpiryTimeUTC: Timestamp{Time: pastTime}},
		},
	}

	client := newTestClient(t, fixture.handler())

	best, ok, err := client.GetBestAccess(context.Background(), "r-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, best)
}

func TestShareAccessIsIdempotent(t *testing.T) {
	t.Parallel()

	fixture := &accessFixture{
		me: User{UserID: "me"},
		templates: []KeyTemplate{
			{Privileges: Privileges{Read: true}, ID: "tmpl-read-1h", TotalHours: 1},
		},
	}

	client := newTestClient(t, fixture.handler())

	req := ShareRequest{
		ResourceID: "r-1",
		UserID:     "bob",
		Privileges: Privileges{Read: true},
	}

	first, err := client.ShareAccess(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "share-new", first)

	// Sharing the same privileges again reuses the existing grant.
	second, err := client.ShareAccess(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fixture.posts)
}

func TestShareAccessWithExplicitTemplate(t *testing.T) {
	t.Parallel()

	fixture := &accessFixture{
		me: User{UserID: "me"},
		templates: []KeyTemplate{
			{Privileges: Privileges{Read: true}, ID: "tmpl-read-1h", TotalHours: 1},
		},
	}

	client := newTestClient(t, fixture.handler())

	// An explicit template ID skips the existing-share check, so two
	// calls mean two delegations.
	req := ShareRequest{ResourceID: "r-1", UserID: "bob", KeyTemplateID: "tmpl-read-1h"}
	for i := 0; i < 2; i++ {
		_, err := client.ShareAccess(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, fixture.posts)
}

func TestShareAccessInvalidatesSnapshot(t *testing.T) {
	t.Parallel()

	fixture := &accessFixture{
		me: User{UserID: "me"},
		templates: []KeyTemplate{
			{Privileges: Privileges{Read: true}, ID: "tmpl-read-1h", TotalHours: 1},
		},
	}

	client := newTestClient(t, fixture.handler())

	_, err := client.GetAllAccesses(context.Background(), "r-1")
	require.NoError(t, err)
	_, ok := client.CachedAccesses("r-1")
	require.True(t, ok)

	_, err = client.ShareAccess(context.Background(), ShareRequest{
		ResourceID: "r-1", UserID: "bob", KeyTemplateID: "tmpl-read-1h",
	})
	require.NoError(t, err)

	_, ok = client.CachedAccesses("r-1")
	assert.False(t, ok, "sharing should drop the cached grant list")
}

func TestRevokeAccessInvalidatesSnapshot(t *testing.T) {
	t.Parallel()

	fixture := &accessFixture{
		me: User{UserID: "me"},
		grants: []Access{
			{Privileges: Privileges{Read: true}, UserID: "bob", AccessSharingID: "share-1", AutoRefreshed: true},
		},
	}

	client := newTestClient(t, fixture.handler())

	grants, err := client.GetAllAccesses(context.Background(), "r-1")
	require.NoError(t, err)
	require.Len(t, grants, 1)

	require.NoError(t, client.RevokeAccess(context.Background(), "r-1", "share-1"))
	assert.Equal(t, 1, fixture.revokes)

	_, ok := client.CachedAccesses("r-1")
	assert.False(t, ok)
}

func TestGetAllAccessesSortsByLevel(t *testing.T) {
	t.Parallel()

	fixture := &accessFixture{
		me: User{UserID: "me"},
		grants: []Access{
			{Privileges: Privileges{Delete: true}, AccessSharingID: "delete"},
			{Privileges: Privileges{Write: true}, AccessSharingID: "write"},
			{Privileges: Privileges{Read: true}, AccessSharingID: "read"},
		},
	}

	client := newTestClient(t, fixture.handler())

	grants, err := client.GetAllAccesses(context.Background(), "r-1")
	require.NoError(t, err)
	require.Len(t, grants, 3)
	assert.Equal(t, "write", grants[0].AccessSharingID)
	assert.Equal(t, "read", grants[1].AccessSharingID)
	assert.Equal(t, "delete", grants[2].AccessSharingID)
}
