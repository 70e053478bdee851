// Package services implements the clients for the remote HTTP APIs used by the toolkit.
//
// # Planning API
//
// [PlannerService] implements [Authenticator] and [Directory]. Login posts the credentials to the
// login endpoint and records a [Token] with a nominal one hour lifetime. [PlannerService.WithToken]
// wraps the base HTTP client in an oauth2 transport backed by a static token source, so every
// hierarchy request carries "Authorization: Bearer <token>". Expiry is never enforced locally.
//
// Fetchers make a single GET with no retry. Failures come back as wrapped sentinel errors:
//   - [shared.ErrNotAuthenticated] : no token attached
//   - [shared.ErrAPIRequest] : transport error, non-2xx status or undecodable body
//   - [shared.ErrAuthFailed] : login rejected for any reason
//
// [APIService] is the raw escape hatch used by `opskit planner raw`.
//
// # Reverse Geocoding
//
// [GeocoderService] queries a Nominatim-compatible reverse endpoint through a token bucket limiter
// and a circuit breaker. [GeocoderService.Locate] degrades to placeholder strings and never fails.
package services
