// Package services implements a typed client for the task manager REST API.
//
// # Client
//
// [Client] wraps an [http.Client] whose transport is expected to be an [auth.Transport]. The transport attaches
// the bearer token and recovers from expired tokens. The client adds the rest:
//   - JSON request and response bodies
//   - a [RetryPolicy]: queries are retried up to three times and mutations once, with a doubling delay
//   - a client side rate limit ([rate.Limiter])
//   - a fresh X-Request-ID header on every attempt
//
// Resource groups hang off the client: [AuthService], [ProjectService], [CategoryService], [MarkerService],
// [TaskService] and [StatisticService]. [Client.Raw] sends arbitrary requests for the `api` command.
//
// # Error Handling
//
// Non-2xx responses become [*shared.APIError], which matches [shared.ErrAPIRequest] and, for 404s,
// [shared.ErrNotFound]. Other errors from the shared package:
//   - [shared.ErrSessionExpired] : the refresh token was rejected and the local session was cleared
//   - [shared.ErrRefreshFailed] : the refresh failed for another reason, the session was kept
//   - [shared.ErrAuthFailed] : login or register was rejected
//   - [shared.ErrMissingArgument] : an id or required field was empty
//
// Client errors (4xx) and expired sessions are never retried.
package services
