// Package generation turns an unreliable language model into a dependable
// content gateway.
//
// A Source (implemented by internal/platform/gemini) produces raw content.
// Service wraps it: it classifies failures as ContentUnavailable or
// ValidationFailure, caches daily and dictionary content in a store.KVStore,
// collapses concurrent identical requests, and serves the built-in Catalogue
// whenever the Source fails or is not configured.
package generation
