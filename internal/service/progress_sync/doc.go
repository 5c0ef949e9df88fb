// Package progress_sync keeps the local progress store consistent with the
// remote service that owns the learner's state.
//
// Every mutation is applied to the store speculatively so it is visible at
// once, then sent to the remote gateway. When the remote call succeeds the
// speculative value is replaced by the authoritative one; when it fails the
// affected sub-state is restored from the snapshot taken before the change.
// Mutations on the same entity key are serialized; mutations on different
// keys run in parallel.
package progress_sync
