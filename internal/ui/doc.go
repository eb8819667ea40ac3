// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view task browser:
//  1. [ProjectListView] : Browse projects
//  2. [TaskListView] : Browse the tasks of a project, filtered by status
//  3. [ConfirmView] : Confirm advancing a task to its next status
//  4. [SnapshotView] : Monitor real-time progress of a workspace snapshot
//  5. [ResultView] : Display what the snapshot fetched and which endpoints failed
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Snapshot progress flows through a channel from the snapshot engine, providing non-blocking status reporting.
//
// Every request goes through the token refresh coordinator, so an expired access token is renewed without the
// user noticing. When the session itself has expired the TUI shows a sign-in hint instead of the failing view.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
