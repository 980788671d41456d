package datafabric

import (
	"context"
	"fmt"
	"net/http"
	"sort"
)

// GetKeyTemplates lists the key templates available for sharing access.
func (c *Client) GetKeyTemplates(ctx context.Context) ([]KeyTemplate, error) {
	var templates []KeyTemplate
	if err := c.rest.doJSON(ctx, http.MethodGet, "/keytemplates", nil, nil, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// FindKeyTemplate picks the template best matching the requested privileges
// and duration. With exact set the privileges must match the template's
// exactly; otherwise any template covering them qualifies. Among qualifying
// templates the one with the lowest privilege level wins, preferring the
// longest duration that still fits within maxHours. When no template fits
// the bound, the shortest-lived qualifying template is returned instead.
func (c *Client) FindKeyTemplate(ctx context.Context, priv Privileges, maxHours int, exact bool) (*KeyTemplate, error) {
	if (priv == Privileges{}) {
		return nil, fmt.Errorf("at least one privilege is required")
	}

	templates, err := c.GetKeyTemplates(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []KeyTemplate
	for _, tmpl := range templates {
		if exact {
			if tmpl.Privileges == priv {
				candidates = append(candidates, tmpl)
			}
		} else if tmpl.Covers(priv) {
			candidates = append(candidates, tmpl)
		}
	}
	if len(candidates) == 0 {
		return nil, &NoTemplateError{Privileges: priv}
	}

	var within []KeyTemplate
	for _, tmpl := range candidates {
		if tmpl.TotalHours <= maxHours {
			within = append(within, tmpl)
		}
	}

	if len(within) > 0 {
		sort.SliceStable(within, func(i, j int) bool {
			if within[i].Level() != within[j].Level() {
				return within[i].Level() < within[j].Level()
			}
			return within[i].TotalHours > within[j].TotalHours
		})
		tmpl := within[0]
		return &tmpl, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Level() != candidates[j].Level() {
			return candidates[i].Level() < candidates[j].Level()
		}
		return candidates[i].TotalHours < candidates[j].TotalHours
	})
	tmpl := candidates[0]
	return &tmpl, nil
}
