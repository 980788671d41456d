package identity

// Short scope aliases accepted anywhere a credential takes a scope list.
const (
	// ScopeVeracity covers the Veracity platform APIs.
	ScopeVeracity = "veracity"
	// ScopeService is an alias for ScopeVeracity kept for callers used
	// to the service naming.
	ScopeService = "veracity_service"
	// ScopeDataFabric covers the Data Fabric storage APIs.
	ScopeDataFabric = "veracity_datafabric"
)

// Application IDs of the platform services scopes resolve against.
const (
	serviceAPIResource = "https://dnvglb2cprod.onmicrosoft.com/83054ebf-1d7b-43f5-82ad-b2bde84d7b75"
	serviceResource    = "https://dnvglb2cprod.onmicrosoft.com/dfc0f96d-1c85-4334-a600-703a89a32a4c"
	dataFabricResource = "https://dnvglb2cprod.onmicrosoft.com/dfba9693-546d-4300-bcd7-d8d525bdff38"
)

// userScopes resolves aliases for interactive sign-in. Delegated access
// always goes through user_impersonation on the platform service API.
var userScopes = map[string]string{
	ScopeVeracity:   serviceAPIResource + "/user_impersonation",
	ScopeService:    serviceAPIResource + "/user_impersonation",
	ScopeDataFabric: serviceAPIResource + "/user_impersonation",
}

// clientScopes resolves aliases for the client-credential grant, which
// requests the .default application scope of the target service.
var clientScopes = map[string]string{
	ScopeVeracity:   serviceResource + "/.default",
	ScopeService:    serviceResource + "/.default",
	ScopeDataFabric: dataFabricResource + "/.default",
}

// ExpandScopes resolves short Veracity scope aliases into full resource
// URIs. Interactive flows get delegated user scopes; application flows
// get .default scopes. Values that are not aliases pass through
// unchanged, so already-expanded scopes are left alone.
func ExpandScopes(scopes []string, interactive bool) []string {
	table := clientScopes
	if interactive {
		table = userScopes
	}

	expanded := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		if full, ok := table[scope]; ok {
			scope = full
		}
		expanded = append(expanded, scope)
	}
	return expanded
}
