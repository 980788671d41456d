package datafabric

import (
	"context"
	"net/http"
	"net/url"

	"github.com/veracity/veracity-sdk-go/pkg/logger"
	"github.com/veracity/veracity-sdk-go/pkg/networking"
)

// GetCurrentUser returns the profile of the signed-in user. Service
// applications get an HTTP error here; WhoAmI resolves either kind of
// caller.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.rest.doJSON(ctx, http.MethodGet, "/users/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser looks up a user by ID.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	var user User
	path := "/users/" + url.PathEscape(userID)
	if err := c.rest.doJSON(ctx, http.MethodGet, path, nil, nil, &user); err != nil {
		return nil, translate(err, map[int]error{
			http.StatusNotFound: ErrUserNotFound,
		})
	}
	return &user, nil
}

// GetSharedUsers lists the users a user has shared storage access with.
func (c *Client) GetSharedUsers(ctx context.Context, userID string) ([]User, error) {
	var users []User
	query := url.Values{"userId": {userID}}
	err := c.rest.doJSON(ctx, http.MethodGet, "/users/ResourceDistributionList", query, nil, &users)
	if err != nil {
		return nil, translate(err, map[int]error{
			http.StatusForbidden: ErrPermissionDenied,
		})
	}
	return users, nil
}

// GetCurrentApplication returns the calling service application's
// registration.
func (c *Client) GetCurrentApplication(ctx context.Context) (*Application, error) {
	var app Application
	if err := c.rest.doJSON(ctx, http.MethodGet, "/application", nil, nil, &app); err != nil {
		return nil, translate(err, map[int]error{
			http.StatusNotFound: ErrApplicationNotFound,
		})
	}
	return &app, nil
}

// GetApplication looks up an application by ID.
func (c *Client) GetApplication(ctx context.Context, applicationID string) (*Application, error) {
	var app Application
	path := "/application/" + url.PathEscape(applicationID)
	if err := c.rest.doJSON(ctx, http.MethodGet, path, nil, nil, &app); err != nil {
		return nil, translate(err, map[int]error{
			http.StatusNotFound: ErrApplicationNotFound,
		})
	}
	return &app, nil
}

// AddApplication registers an application with the Data Fabric. The
// caller needs the DataAdmin role.
func (c *Client) AddApplication(ctx context.Context, app Application) error {
	if err := c.rest.doJSON(ctx, http.MethodPost, "/application", nil, app, nil); err != nil {
		return translate(err, map[int]error{
			http.StatusConflict: ErrAlreadyExists,
		})
	}
	return nil
}

// UpdateApplicationRole changes an application's Data Fabric role.
func (c *Client) UpdateApplicationRole(ctx context.Context, applicationID, role string) (*Application, error) {
	var app Application
	path := "/application/" + url.PathEscape(applicationID)
	query := url.Values{"role": {role}}
	if err := c.rest.doJSON(ctx, http.MethodPut, path, query, nil, &app); err != nil {
		return nil, translate(err, map[int]error{
			http.StatusNotFound: ErrApplicationNotFound,
		})
	}
	return &app, nil
}

// WhoAmI identifies the caller, trying the user endpoint first and
// falling back to the application endpoint for service credentials.
// The result is cached for the client's lifetime.
func (c *Client) WhoAmI(ctx context.Context) (*Principal, error) {
	c.mu.Lock()
	cached := c.principal
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	principal, err := c.resolvePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.principal = principal
	c.mu.Unlock()
	return principal, nil
}

func (c *Client) resolvePrincipal(ctx context.Context) (*Principal, error) {
	user, err := c.GetCurrentUser(ctx)
	if err == nil {
		return &Principal{
			ID:        user.UserID,
			Type:      PrincipalUser,
			CompanyID: user.CompanyID,
			Role:      user.Role,
		}, nil
	}
	if !networking.IsHTTPError(err, 0) {
		return nil, err
	}

	// Probably an application, not a user.
	logger.Debugf("users/me failed (%v); trying the application endpoint", err)
	app, err := c.GetCurrentApplication(ctx)
	if err != nil {
		return nil, err
	}
	return &Principal{
		ID:        app.ID,
		Type:      PrincipalApplication,
		CompanyID: app.CompanyID,
		Role:      app.Role,
	}, nil
}
