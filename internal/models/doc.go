// Package models defines the entities of the task backend and the records ztx keeps locally.
//
// The package contains two categories of types:
//
// 1. API entities: plain structs decoded from the backend's camelCase JSON
//   - [User], [Project], [Category], [Marker], [Task] and their sidebar "name" views
//   - [Page] : paginated listing wrapper
//   - input types sent on create and update ([ProjectInput], [TaskInput], ...)
//   - list parameters ([TaskParams], ...) encoded with [url.Values], omitting unset fields
//
// 2. Persistent entities: records stored in the local SQLite database
//   - [Credential] : access token and user id saved per backend
//
// Persistent entities implement [Model]; [Repository] is the CRUD contract of their repositories.
//
// [TaskStatus] carries the workflow of a task: labels for display, parsing from user input and the
// "advance" transition used by the task browser.
package models
