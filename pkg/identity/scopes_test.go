package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandScopes(t *testing.T) {
	t.Parallel()

	const (
		impersonation = "https://dnvglb2cprod.onmicrosoft.com/83054ebf-1d7b-43f5-82ad-b2bde84d7b75/user_impersonation"
		serviceAppDef = "https://dnvglb2cprod.onmicrosoft.com/dfc0f96d-1c85-4334-a600-703a89a32a4c/.default"
		dataFabricDef = "https://dnvglb2cprod.onmicrosoft.com/dfba9693-546d-4300-bcd7-d8d525bdff38/.default"
	)

	tests := []struct {
		name        string
		scopes      []string
		interactive bool
		want        []string
	}{
		{
			name:        "veracity alias interactive",
			scopes:      []string{"veracity"},
			interactive: true,
			want:        []string{impersonation},
		},
		{
			name:        "all user aliases resolve to impersonation",
			scopes:      []string{"veracity", "veracity_service", "veracity_datafabric"},
			interactive: true,
			want:        []string{impersonation, impersonation, impersonation},
		},
		{
			name:        "veracity alias for services",
			scopes:      []string{"veracity"},
			interactive: false,
			want:        []string{serviceAppDef},
		},
		{
			name:        "service alias for services",
			scopes:      []string{"veracity_service"},
			interactive: false,
			want:        []string{serviceAppDef},
		},
		{
			name:        "datafabric alias for services",
			scopes:      []string{"veracity_datafabric"},
			interactive: false,
			want:        []string{dataFabricDef},
		},
		{
			name:        "unknown scopes pass through",
			scopes:      []string{"openid", "https://example.com/api/.default"},
			interactive: false,
			want:        []string{"openid", "https://example.com/api/.default"},
		},
		{
			name:        "mixed aliases and literals",
			scopes:      []string{"veracity_datafabric", "offline_access"},
			interactive: true,
			want:        []string{impersonation, "offline_access"},
		},
		{
			name:        "empty",
			scopes:      nil,
			interactive: true,
			want:        []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, ExpandScopes(tt.scopes, tt.interactive))
		})
	}
}
