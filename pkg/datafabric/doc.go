// Package datafabric is a client for the Veracity Data Fabric REST
// APIs. It wraps the resource, access, user, key-template and data
// steward endpoints of the data API plus the container provisioning
// API, and implements the access resolution the platform expects of
// clients: ranking the caller's delegated grants by privilege level,
// exchanging the best one for a short-lived SAS key, and caching that
// key until it dies.
//
// Requests authenticate with an identity.Credential plus the API
// management subscription key; both travel on every request.
package datafabric
