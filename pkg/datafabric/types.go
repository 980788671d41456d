package datafabric

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Timestamp unmarshals the API's timestamps, which sometimes omit the
// timezone suffix. Zoneless values are taken as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// Privileges names the privileges of an access grant or key template.
// On the wire they travel as attribute1 (read), attribute2 (write),
// attribute3 (delete) and attribute4 (list).
type Privileges struct {
	Read   bool `json:"attribute1"`
	Write  bool `json:"attribute2"`
	Delete bool `json:"attribute3"`
	List   bool `json:"attribute4"`
}

// Level scores a privilege set: delete=8, read=4, list=2, write=1.
// Scores are additive, so read+write+list = 7, and a grant with delete
// always outranks one without (level >= 8). Write scores lowest since
// it exposes no data on its own.
func (p Privileges) Level() int {
	level := 0
	if p.Read {
		level += 4
	}
	if p.Write {
		level++
	}
	if p.Delete {
		level += 8
	}
	if p.List {
		level += 2
	}
	return level
}

// Covers reports whether p grants at least every privilege in req.
func (p Privileges) Covers(req Privileges) bool {
	if req.Read && !p.Read {
		return false
	}
	if req.Write && !p.Write {
		return false
	}
	if req.Delete && !p.Delete {
		return false
	}
	if req.List && !p.List {
		return false
	}
	return true
}

// String lists the granted privileges, e.g. "read+write".
func (p Privileges) String() string {
	names := make([]string, 0, 4)
	if p.Read {
		names = append(names, "read")
	}
	if p.Write {
		names = append(names, "write")
	}
	if p.Delete {
		names = append(names, "delete")
	}
	if p.List {
		names = append(names, "list")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}

// IPRange restricts where keys issued from a grant may be used from.
type IPRange struct {
	StartIP string `json:"startIp"`
	EndIP   string `json:"endIp"`
}

// Access is a delegated access grant on a resource.
type Access struct {
	Privileges

	UserID              string    `json:"userId"`
	OwnerID             string    `json:"ownerId"`
	GrantedByID         string    `json:"grantedById"`
	AccessSharingID     string    `json:"accessSharingId"`
	KeyCreated          bool      `json:"keyCreated"`
	AutoRefreshed       bool      `json:"autoRefreshed"`
	KeyCreatedTimeUTC   Timestamp `json:"keyCreatedTimeUTC"`
	KeyExpiryTimeUTC    Timestamp `json:"keyExpiryTimeUTC"`
	ResourceType        string    `json:"resourceType"`
	AccessHours         int       `json:"accessHours"`
	AccessKeyTemplateID string    `json:"accessKeyTemplateId"`
	ResourceID          string    `json:"resourceId"`
	IPRange             *IPRange  `json:"ipRange,omitempty"`
	Comment             string    `json:"comment,omitempty"`
}

// usable reports whether a key can still be minted from the grant:
// auto-refreshed grants renew server-side, others must not have passed
// their expiry. Grants that never had a key issued need auto-refresh.
func (a *Access) usable(now time.Time) bool {
	if a.AutoRefreshed {
		return true
	}
	return !a.KeyExpiryTimeUTC.IsZero() && !a.KeyExpiryTimeUTC.Time.Before(now)
}

// AccessPage is one page of the access grants on a resource.
type AccessPage struct {
	Results        []Access `json:"results"`
	Page           int      `json:"page"`
	ResultsPerPage int      `json:"resultsPerPage"`
	TotalPages     int      `json:"totalPages"`
	TotalResults   int      `json:"totalResults"`
}

// KeyTemplate describes a class of SAS keys that can be shared:
// a privilege set plus a lifetime.
type KeyTemplate struct {
	Privileges

	ID          string `json:"id"`
	Name        string `json:"name"`
	TotalHours  int    `json:"totalHours"`
	IsSystemKey bool   `json:"isSystemKey"`
	Description string `json:"description"`
}

// SASKey is a shared access signature for a resource. The sasuRi field
// name is the API's own spelling.
type SASKey struct {
	SASKey              string    `json:"sasKey"`
	SASURI              string    `json:"sasuRi"`
	FullKey             string    `json:"fullKey"`
	SASKeyExpiryTimeUTC Timestamp `json:"sasKeyExpiryTimeUTC"`
	IsKeyExpired        bool      `json:"isKeyExpired"`
	AutoRefreshed       bool      `json:"autoRefreshed"`
	IPRange             *IPRange  `json:"ipRange,omitempty"`

	// AccessID names the grant the key was minted from. The API does
	// not return it; the client records it at issuance.
	AccessID string `json:"-"`
}

// Resource is a Data Fabric storage container.
type Resource struct {
	ID                  string    `json:"id"`
	Reference           string    `json:"reference"`
	URL                 string    `json:"url"`
	LastModifiedUTC     Timestamp `json:"lastModifiedUTC"`
	CreationDateTimeUTC Timestamp `json:"creationDateTimeUTC"`
	OwnerID             string    `json:"ownerId"`
	AccessLevel         string    `json:"accessLevel"`
	Region              string    `json:"region"`
	KeyStatus           string    `json:"keyStatus"`

	// MayContainPersonalData is a string on the wire ("unknown" when
	// the owner never said).
	MayContainPersonalData string `json:"mayContainPersonalData"`
}

// User is a Data Fabric user profile.
type User struct {
	UserID    string `json:"userId"`
	CompanyID string `json:"companyId"`
	Role      string `json:"role"`
}

// Application is a service application registered with the Data Fabric.
type Application struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`
	Role      string `json:"role"`
}

// PrincipalType distinguishes signed-in users from service
// applications.
type PrincipalType string

const (
	PrincipalUser        PrincipalType = "user"
	PrincipalApplication PrincipalType = "application"
)

// Principal identifies the caller behind a credential.
type Principal struct {
	ID        string
	Type      PrincipalType
	CompanyID string
	Role      string
}

// Steward is a user delegated management rights on a resource.
type Steward struct {
	UserID     string `json:"userId"`
	ResourceID string `json:"resourceId"`
	GrantedBy  string `json:"grantedBy"`
	Comment    string `json:"comment"`
}
