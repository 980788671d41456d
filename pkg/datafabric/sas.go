package datafabric

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// SASExpiryPolicy controls when a cached SAS key is considered dead and
// evicted on lookup.
type SASExpiryPolicy int

const (
	// SASExpiryStrict evicts a key once its expiry time has passed,
	// regardless of whether the key auto-refreshes.
	SASExpiryStrict SASExpiryPolicy = iota

	// SASExpiryTrustAutoRefresh keeps auto-refreshed keys until the
	// service itself marks them expired.
	SASExpiryTrustAutoRefresh
)

// GetSAS returns a SAS key for the resource, reusing a cached live key
// when one exists and exchanging an access grant for a fresh one
// otherwise. With accessID empty the caller's best usable grant is
// exchanged; see GetSASNew.
func (c *Client) GetSAS(ctx context.Context, resourceID, accessID string) (*SASKey, error) {
	if key, ok := c.GetSASCached(resourceID); ok {
		return key, nil
	}
	return c.GetSASNew(ctx, resourceID, accessID)
}

// GetSASNew exchanges an access grant for a fresh SAS key and caches it
// for the resource. With accessID empty the caller's best usable grant
// is resolved first.
func (c *Client) GetSASNew(ctx context.Context, resourceID, accessID string) (*SASKey, error) {
	if accessID == "" {
		grant, ok, err := c.GetBestAccess(ctx, resourceID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w for resource %s", ErrNoAccess, resourceID)
		}
		accessID = grant.AccessSharingID
	}

	path := fmt.Sprintf("/resources/%s/accesses/%s/key",
		url.PathEscape(resourceID), url.PathEscape(accessID))
	var key SASKey
	if err := c.rest.doJSON(ctx, http.MethodPut, path, nil, nil, &key); err != nil {
		return nil, err
	}
	key.AccessID = accessID

	c.mu.Lock()
	stored := key
	c.sasCache[resourceID] = &stored
	c.mu.Unlock()
	return &key, nil
}

// GetSASCached returns the cached SAS key for a resource if one exists
// and is still live under the client's expiry policy. Dead keys are
// evicted on lookup.
func (c *Client) GetSASCached(resourceID string) (*SASKey, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key, ok := c.sasCache[resourceID]
	if !ok {
		return nil, false
	}
	if c.sasKeyDead(key) {
		delete(c.sasCache, resourceID)
		return nil, false
	}
	out := *key
	return &out, true
}

func (c *Client) sasKeyDead(key *SASKey) bool {
	if key.IsKeyExpired {
		return true
	}
	if c.policy == SASExpiryTrustAutoRefresh && key.AutoRefreshed {
		return false
	}
	return !key.SASKeyExpiryTimeUTC.After(c.now())
}
