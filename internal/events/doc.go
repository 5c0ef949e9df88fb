// Package events fans out settled state mutations to interested components.
//
// The sync coordinator emits a MutationEvent every time a mutation is
// committed or rolled back. Handlers such as the snapshot persister and the
// metrics recorder subscribe without the coordinator knowing about them.
//
// Handlers run in registration order on the coordinator's goroutine, so a
// handler sees the local state exactly as the mutation left it.
package events
