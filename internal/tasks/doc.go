// Package tasks orchestrates the prompt-to-playlist pipeline.
//
// [BuildEngine] runs one build end to end: ask the suggestion generator for
// candidate tracks, resolve each one against the catalog, then write all
// resolved tracks in a single batched playlist mutation.
//
// # Failure Semantics
//
// The phases fail differently on purpose:
//   - A generator failure aborts the run before the catalog is touched, so a
//     partial playlist is never created.
//   - A search miss only skips that one suggestion; unresolved suggestions
//     are dropped, never replaced with a guess.
//   - Any other catalog failure aborts the run.
//   - An expired token triggers one refresh-and-retry per build; a second
//     expiry surfaces as the error it is.
//
// # Progress Reporting
//
// Long phases emit [ProgressUpdate] values on an optional channel so the CLI
// and TUI can render live status without polling. A nil channel disables
// reporting.
//
// Builds are not idempotent: running the same prompt against the same
// playlist appends again. Deduplication only applies within a single run.
package tasks
