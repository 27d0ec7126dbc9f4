// Package cli provides the interactive SpendTrack command-line client.
//
// It wires configuration, the local session store, the API gateway and the
// auth coordinator into an interactive REPL. Typical flow: restore any
// persisted session on startup, start a background connectivity watcher,
// and execute user commands.
//
// Key features:
//   - Register / Login / Logout with persisted sessions
//   - List / Add / Delete expenses
//   - Spending prediction
//   - Forced sign-out announcements when the session is invalidated
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
