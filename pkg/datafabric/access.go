package datafabric

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/veracity/veracity-sdk-go/pkg/logger"
)

// GetAccesses fetches one page of the access grants on a resource.
// Page numbering starts at 1; a pageSize of -1 asks for everything in
// one page.
func (c *Client) GetAccesses(ctx context.Context, resourceID string, page, pageSize int) (*AccessPage, error) {
	query := url.Values{
		"pageNo":   {strconv.Itoa(page)},
		"pageSize": {strconv.Itoa(pageSize)},
	}

	var result AccessPage
	path := fmt.Sprintf("/resources/%s/accesses", url.PathEscape(resourceID))
	if err := c.rest.doJSON(ctx, http.MethodGet, path, query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetAllAccesses fetches every access grant on a resource, sorted by
// ascending privilege level. The fetched list is kept as the resource's
// cached snapshot (CachedAccesses).
func (c *Client) GetAllAccesses(ctx context.Context, resourceID string) ([]Access, error) {
	page, err := c.GetAccesses(ctx, resourceID, 1, -1)
	if err != nil {
		return nil, err
	}

	grants := page.Results
	sort.SliceStable(grants, func(i, j int) bool {
		return grants[i].Level() < grants[j].Level()
	})

	c.mu.Lock()
	c.accessCache[resourceID] = grants
	c.mu.Unlock()
	return grants, nil
}

// CachedAccesses returns the grant list last fetched for a resource
// without going to the network. Sharing or revoking drops the snapshot.
func (c *Client) CachedAccesses(resourceID string) ([]Access, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	grants, ok := c.accessCache[resourceID]
	return grants, ok
}

// GetBestAccess resolves the most privileged usable grant the caller
// holds on a resource. A grant is usable when it auto-refreshes or its
// key has not expired. Holding no grant is reported through the
// boolean, not an error.
func (c *Client) GetBestAccess(ctx context.Context, resourceID string) (*Access, bool, error) {
	principal, err := c.WhoAmI(ctx)
	if err != nil {
		return nil, false, err
	}
	grants, err := c.GetAllAccesses(ctx, resourceID)
	if err != nil {
		return nil, false, err
	}

	now := c.now()
	var best *Access
	for i := range grants {
		grant := &grants[i]
		if grant.UserID != principal.ID || !grant.usable(now) {
			continue
		}
		if best == nil || grant.Level() > best.Level() {
			best = grant
		}
	}
	if best == nil {
		return nil, false, nil
	}

	result := *best
	return &result, true, nil
}

// CheckShareExists reports whether the caller has already shared the
// resource with the principal at the requested privileges, returning
// the existing grant's sharing ID when so. Key durations are not
// compared.
func (c *Client) CheckShareExists(ctx context.Context, resourceID, principalID string, priv Privileges, exact bool) (string, bool, error) {
	me, err := c.WhoAmI(ctx)
	if err != nil {
		return "", false, err
	}
	grants, err := c.GetAllAccesses(ctx, resourceID)
	if err != nil {
		return "", false, err
	}

	for i := range grants {
		grant := &grants[i]
		if grant.UserID != principalID || grant.GrantedByID != me.ID {
			continue
		}
		if exact {
			if grant.Privileges != priv {
				continue
			}
		} else if !grant.Privileges.Covers(priv) {
			continue
		}
		return grant.AccessSharingID, true, nil
	}
	return "", false, nil
}

// ShareRequest describes an access delegation.
type ShareRequest struct {
	// ResourceID is the container to share.
	ResourceID string

	// UserID is the principal receiving access.
	UserID string

	// KeyTemplateID names the key template directly. When empty, a
	// template is selected from Privileges and DurationHours, and an
	// existing equivalent share is reused instead of creating another.
	KeyTemplateID string

	// Privileges select a key template when KeyTemplateID is empty.
	Privileges Privileges

	// Exact requires a template granting exactly Privileges rather
	// than any superset.
	Exact bool

	// DurationHours caps the selected template's key lifetime.
	// Defaults to 1, the shortest lifetime the platform offers.
	DurationHours int

	// AutoRefreshed asks the platform to renew issued keys
	// server-side.
	AutoRefreshed bool

	// Comment is attached to the share, if given.
	Comment string

	// IPRange restricts where issued keys may be used from.
	IPRange *IPRange
}

type shareAccessBody struct {
	UserID              string   `json:"userId"`
	AccessKeyTemplateID string   `json:"accessKeyTemplateId"`
	Comment             string   `json:"comment,omitempty"`
	IPRange             *IPRange `json:"ipRange,omitempty"`
}

// ShareAccess delegates access on a container and returns the sharing
// ID of the grant. Without an explicit template ID the call is
// idempotent: an existing share covering the requested privileges is
// returned instead of a duplicate.
func (c *Client) ShareAccess(ctx context.Context, req ShareRequest) (string, error) {
	templateID := req.KeyTemplateID
	if templateID == "" {
		existing, found, err := c.CheckShareExists(ctx, req.ResourceID, req.UserID, req.Privileges, req.Exact)
		if err != nil {
			return "", err
		}
		if found {
			logger.Debugf("Reusing existing share %s for %s on %s", existing, req.UserID, req.ResourceID)
			return existing, nil
		}

		hours := req.DurationHours
		if hours <= 0 {
			hours = 1
		}
		template, err := c.FindKeyTemplate(ctx, req.Privileges, hours, req.Exact)
		if err != nil {
			return "", err
		}
		templateID = template.ID
	}

	body := shareAccessBody{
		UserID:              req.UserID,
		AccessKeyTemplateID: templateID,
		Comment:             req.Comment,
		IPRange:             req.IPRange,
	}
	query := url.Values{"autoRefreshed": {strconv.FormatBool(req.AutoRefreshed)}}

	var result struct {
		AccessSharingID string `json:"accessSharingId"`
	}
	path := fmt.Sprintf("/resources/%s/accesses", url.PathEscape(req.ResourceID))
	if err := c.rest.doJSON(ctx, http.MethodPost, path, query, body, &result); err != nil {
		return "", translate(err, map[int]error{
			http.StatusBadRequest: ErrMalformedRequest,
			http.StatusNotFound:   ErrContainerNotFound,
		})
	}

	c.invalidateAccesses(req.ResourceID)
	return result.AccessSharingID, nil
}

// RevokeAccess withdraws a grant. Keys already minted from it stop
// working once the platform processes the revocation.
func (c *Client) RevokeAccess(ctx context.Context, resourceID, accessID string) error {
	path := fmt.Sprintf("/resources/%s/accesses/%s",
		url.PathEscape(resourceID), url.PathEscape(accessID))
	if err := c.rest.doJSON(ctx, http.MethodPut, path, nil, nil, nil); err != nil {
		return translate(err, map[int]error{
			http.StatusForbidden: ErrPermissionDenied,
			http.StatusNotFound:  ErrContainerNotFound,
		})
	}

	c.invalidateAccesses(resourceID)
	return nil
}

func (c *Client) invalidateAccesses(resourceID string) {
	c.mu.Lock()
	delete(c.accessCache, resourceID)
	c.mu.Unlock()
}
