// Package snapshot fetches the whole workspace of the logged in user with real-time progress reporting.
//
// [Engine.Take] runs one fetch per endpoint (profile, projects, categories, markers, tasks, statistics) on an
// [errgroup.Group] limited to [Options.Workers] goroutines. Listings are walked page by page.
//
// # Progress Reporting
//
// Each finished fetch emits a [ProgressUpdate]. Updates use select with default so a slow reader never blocks a
// fetch.
//
// # Failures
//
// A failed endpoint is recorded in [Snapshot.Errors] and the snapshot continues. An expired session
// ([shared.ErrSessionExpired]) cancels the remaining fetches and fails the snapshot.
//
// Because the fetches start together, an expired access token produces a burst of 401 responses; the
// [auth.Transport] under the client answers the burst with a single refresh.
package snapshot
