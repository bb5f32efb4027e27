// Package models defines the domain entities for the prompt-to-playlist pipeline.
//
// The package contains two categories of types:
//
// 1. Pipeline values, all ephemeral:
//   - [Suggestion] : an (artist, title) candidate from the suggestion generator
//   - [CatalogHit] : a track returned by catalog search
//   - [ResolvedTrack] : a suggestion matched (or not) to a catalog track
//   - [PlaylistTarget] / [BuildResult] : the input and output of one build run
//
// 2. Persistent entities:
//   - [Session] : a user's access/refresh token pair, the only state this
//     system keeps; everything else lives in the remote service's playlist.
package models
