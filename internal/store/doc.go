// Package store defines the key-value persistence contract used for the local
// snapshot of the user state and for cached generated content. It keeps the
// rest of the application independent of the database behind it.
//
// MemoryStore is the in-process implementation; SQL backends live in
// internal/platform/kvstore.
package store
