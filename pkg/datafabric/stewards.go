package datafabric

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// GetDataStewards lists the data stewards delegated on a resource.
func (c *Client) GetDataStewards(ctx context.Context, resourceID string) ([]Steward, error) {
	path := fmt.Sprintf("/resources/%s/datastewards", url.PathEscape(resourceID))
	var stewards []Steward
	if err := c.rest.doJSON(ctx, http.MethodGet, path, nil, nil, &stewards); err != nil {
		return nil, translate(err, map[int]error{
			http.StatusNotFound: ErrContainerNotFound,
		})
	}
	return stewards, nil
}

// DelegateDataSteward appoints a user as data steward on a resource.
func (c *Client) DelegateDataSteward(ctx context.Context, resourceID, userID, comment string) (*Steward, error) {
	path := fmt.Sprintf("/resources/%s/datastewards/%s",
		url.PathEscape(resourceID), url.PathEscape(userID))
	body := map[string]string{"comment": comment}
	var steward Steward
	if err := c.rest.doJSON(ctx, http.MethodPost, path, nil, body, &steward); err != nil {
		return nil, translate(err, map[int]error{
			http.StatusForbidden: ErrPermissionDenied,
			http.StatusNotFound:  ErrContainerNotFound,
		})
	}
	return &steward, nil
}

// RemoveDataSteward withdraws a user's stewardship of a resource.
func (c *Client) RemoveDataSteward(ctx context.Context, resourceID, userID string) error {
	path := fmt.Sprintf("/resources/%s/datastewards/%s",
		url.PathEscape(resourceID), url.PathEscape(userID))
	if _, err := c.rest.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return translate(err, map[int]error{
			http.StatusForbidden: ErrPermissionDenied,
			http.StatusNotFound:  ErrContainerNotFound,
		})
	}
	return nil
}

// TransferOwnership hands the resource over to another user, optionally
// keeping the current owner on as data steward.
func (c *Client) TransferOwnership(ctx context.Context, resourceID, userID string, keepAsSteward bool) (*Resource, error) {
	path := fmt.Sprintf("/resources/%s/owner", url.PathEscape(resourceID))
	query := url.Values{
		"userId":                  {userID},
		"keepAccessAsDataSteward": {strconv.FormatBool(keepAsSteward)},
	}
	var resource Resource
	if err := c.rest.doJSON(ctx, http.MethodPut, path, query, nil, &resource); err != nil {
		return nil, translate(err, map[int]error{
			http.StatusForbidden: ErrPermissionDenied,
			http.StatusNotFound:  ErrContainerNotFound,
		})
	}
	return &resource, nil
}
