package datafabric

import (
	"context"
	"net/http"
	"net/url"
)

// GetResources lists every container the caller can claim keys for.
func (c *Client) GetResources(ctx context.Context) ([]Resource, error) {
	var resources []Resource
	if err := c.rest.doJSON(ctx, http.MethodGet, "/resources", nil, nil, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

// GetResource fetches a single container's metadata.
func (c *Client) GetResource(ctx context.Context, resourceID string) (*Resource, error) {
	var resource Resource
	path := "/resources/" + url.PathEscape(resourceID)
	if err := c.rest.doJSON(ctx, http.MethodGet, path, nil, nil, &resource); err != nil {
		return nil, translate(err, map[int]error{
			http.StatusForbidden: ErrPermissionDenied,
			http.StatusNotFound:  ErrContainerNotFound,
		})
	}
	return &resource, nil
}
