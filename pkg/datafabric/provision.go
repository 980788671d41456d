package datafabric

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cenkalti/backoff/v5"

	"github.com/veracity/veracity-sdk-go/pkg/identity"
)

// DefaultStorageLocation is the Azure region containers are provisioned
// in when ContainerSpec leaves StorageLocation empty.
const DefaultStorageLocation = "westeurope"

// containerIcon is the tile icon shown on the Data Fabric UI. The
// service requires one; this matches what the portal assigns.
type containerIcon struct {
	ID              string `json:"id"`
	BackgroundColor string `json:"backgroundColor"`
}

var defaultContainerIcon = containerIcon{
	ID:              "Automatic_Information_Display",
	BackgroundColor: "#5594aa",
}

type containerTag struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

func wireTags(tags []string) []containerTag {
	out := make([]containerTag, 0, len(tags))
	for _, tag := range tags {
		out = append(out, containerTag{Title: tag, Type: "tag"})
	}
	return out
}

// ContainerSpec describes a blob container to provision.
type ContainerSpec struct {
	// ShortName is the Azure container name: letters and numbers, no
	// spaces or special characters.
	ShortName string

	// Title is displayed on the Data Fabric UI.
	Title string

	Description string

	// StorageLocation is the Azure region, DefaultStorageLocation when
	// empty.
	StorageLocation string

	Tags []string

	// MayContainPersonalData flags the container for GDPR handling.
	MayContainPersonalData bool
}

// CopySpec describes copying an existing container and its content
// into a new one, using an access grant on the source.
type CopySpec struct {
	// SourceID is the container to copy.
	SourceID string

	// AccessID is the access sharing ID used to read the source.
	AccessID string

	ShortName              string
	Title                  string
	Description            string
	Tags                   []string
	MayContainPersonalData bool

	// GroupID optionally places the copy in a portal group.
	GroupID string
}

// ProvisionClient calls the Data Fabric provisioning API, which
// creates, copies and deletes the containers the data API operates on.
// Provisioning is asynchronous: accepted requests complete in the
// background.
type ProvisionClient struct {
	rest rest
}

// NewProvisionClient creates a provisioning client. Every request
// carries the subscription key and a bearer token minted from the
// credential.
func NewProvisionClient(cred identity.Credential, subscriptionKey string, opts ...Option) *ProvisionClient {
	cfg := newConfig(opts)
	return &ProvisionClient{
		rest: newREST(cfg.provisionURL, cred, subscriptionKey, cfg.scope, cfg.httpClient),
	}
}

// CreateContainer requests a new blob container and returns its ID.
// The container is not immediately visible to the data API; see
// WaitForContainer.
func (p *ProvisionClient) CreateContainer(ctx context.Context, spec ContainerSpec) (string, error) {
	location := spec.StorageLocation
	if location == "" {
		location = DefaultStorageLocation
	}
	body := struct {
		StorageLocation        string         `json:"storageLocation"`
		ContainerShortName     string         `json:"containerShortName"`
		MayContainPersonalData bool           `json:"mayContainPersonalData"`
		Title                  string         `json:"title"`
		Description            string         `json:"description"`
		Icon                   containerIcon  `json:"icon"`
		Tags                   []containerTag `json:"tags"`
	}{
		StorageLocation:        location,
		ContainerShortName:     spec.ShortName,
		MayContainPersonalData: spec.MayContainPersonalData,
		Title:                  spec.Title,
		Description:            spec.Description,
		Icon:                   defaultContainerIcon,
		Tags:                   wireTags(spec.Tags),
	}

	payload, err := p.rest.do(ctx, http.MethodPost, "/container", nil, body)
	if err != nil {
		return "", err
	}
	// The accepted response body is the container GUID as a JSON string.
	return strings.Trim(strings.TrimSpace(string(payload)), `"`), nil
}

// CopyContainer requests a copy of a container's content into a new
// container. The copy proceeds in the background once accepted.
func (p *ProvisionClient) CopyContainer(ctx context.Context, spec CopySpec) error {
	body := struct {
		SourceResourceID                   string         `json:"sourceResourceId"`
		CopyResourceShortName              string         `json:"copyResourceShortName"`
		CopyResourceMayContainPersonalData bool           `json:"copyResourceMayContainPersonalData"`
		CopyResourceTitle                  string         `json:"copyResourceTitle"`
		CopyResourceDescription            string         `json:"copyResourceDescription"`
		CopyResourceIcon                   containerIcon  `json:"copyResourceIcon"`
		CopyResourceTags                   []containerTag `json:"copyResourceTags"`
		GroupID                            string         `json:"groupId,omitempty"`
	}{
		SourceResourceID:                   spec.SourceID,
		CopyResourceShortName:              spec.ShortName,
		CopyResourceMayContainPersonalData: spec.MayContainPersonalData,
		CopyResourceTitle:                  spec.Title,
		CopyResourceDescription:            spec.Description,
		CopyResourceIcon:                   defaultContainerIcon,
		CopyResourceTags:                   wireTags(spec.Tags),
		GroupID:                            spec.GroupID,
	}

	query := url.Values{"accessId": {spec.AccessID}}
	_, err := p.rest.do(ctx, http.MethodPost, "/container/copycontainer", query, body)
	return err
}

// DeleteContainer deletes a blob container and its content.
func (p *ProvisionClient) DeleteContainer(ctx context.Context, containerID string) error {
	path := fmt.Sprintf("/container/%s", url.PathEscape(containerID))
	if _, err := p.rest.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return translate(err, map[int]error{
			http.StatusForbidden: ErrNotOwner,
			http.StatusNotFound:  ErrContainerNotFound,
		})
	}
	return nil
}

// ListRegions lists the Azure regions containers can be provisioned in.
// Each region is returned as the raw attribute map the service sends.
func (p *ProvisionClient) ListRegions(ctx context.Context) ([]map[string]any, error) {
	var regions []map[string]any
	if err := p.rest.doJSON(ctx, http.MethodGet, "/regions", nil, nil, &regions); err != nil {
		return nil, err
	}
	return regions, nil
}

// WaitForContainer polls the data API until a freshly provisioned
// container becomes visible, backing off exponentially between
// attempts. It returns the resource once found, or the last error when
// the context ends or a failure other than not-found occurs.
func WaitForContainer(ctx context.Context, client *Client, containerID string) (*Resource, error) {
	operation := func() (*Resource, error) {
		resource, err := client.GetResource(ctx, containerID)
		if err == nil {
			return resource, nil
		}
		if errors.Is(err, ErrContainerNotFound) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}
	return backoff.Retry(ctx, operation, backoff.WithBackOff(backoff.NewExponentialBackOff()))
}
