// Package auth keeps API requests authenticated.
//
// # Request Authorizer
//
// [Coordinator.Authorize] clones an outgoing request and sets "Authorization: Bearer <token>" from the
// [TokenStore]. A store that fails to read is treated as holding no token.
//
// # Response Guardian
//
// [Transport] is an [http.RoundTripper] that sends the authorized request and inspects error responses.
// A response is refreshable when its status is 401 or its first error message is "jwt expired" or
// "jwt must be provided". Refreshable responses drive [Coordinator.Refresh]:
//
//   - the first request of a burst becomes the leader and performs the only refresh call
//   - requests failing while that call is outstanding are queued on one-shot channels
//   - when the call settles every queued request receives the same result exactly once
//
// On success each request of the burst is replayed once with the new token. Replays carry a retry marker
// in their context and are never refreshed again.
//
// # Critical Failures
//
// A refresh failing with "jwt expired", "Refresh token not passed", "Invalid refresh token" or a message
// containing "Invalid or expired token" ends the session: the store is cleared and the [Navigator] is sent to
// the login path. Any other failure (a network error, a 5xx) only fails the requests of the burst.
//
// The refresh token itself never passes through this package. It lives in the cookie jar of the
// [http.Client] given to [HTTPRefresher].
package auth
