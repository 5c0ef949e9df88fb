// Package progress holds the local, in-memory copy of a learner's state and
// computes the views derived from it: learned words, words still to learn,
// words due for review, bookmarks, accuracy and rank.
//
// The Store never talks to the remote service. All writes are issued by the
// sync coordinator through Store.Update, which applies a whole mutation or
// nothing.
package progress
