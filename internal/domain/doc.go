// Package domain contains the core entities of the vocabulary trainer: words
// and their review records, practice sessions, user settings and the derived
// progress values. It is independent of storage, transport and presentation.
package domain
