// Package gemini implements generation.Source on top of Google's Gemini API.
//
// Every request asks for a JSON answer constrained by a response schema
// (schema.go); prompts are text templates embedded from prompts/. Transient
// API failures are retried with exponential backoff and jitter, while
// unusable or blocked responses fail immediately with
// generation.ErrInvalidResponse or generation.ErrContentBlocked.
//
// The generator never substitutes fallback content itself; that is the job of
// generation.Service.
package gemini
