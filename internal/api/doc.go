// Package api serves the local HTTP API used by the presentation layer. It
// translates requests into sync coordinator, practice and content calls and
// maps their failures to status codes without leaking internal details.
package api
