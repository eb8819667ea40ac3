// Package repositories implements SQLite persistence for the local session state of ztx.
//
// Key Implementations:
//   - [CredentialRepository] : access token and user id per backend, implements [models.Repository]
//   - [Session] : [auth.TokenStore] view of one backend's credential
//   - [CookieRepository] : cookies set by a backend, keyed by base URL and name
//   - [PersistentJar] : [http.CookieJar] writing through to [CookieRepository] so the refresh token
//     cookie outlives the process
//
// Lookups that match nothing return errors wrapping [shared.ErrNotFound].
package repositories
