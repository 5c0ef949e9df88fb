// Package httpgateway implements gateway.StateGateway over the remote
// backend's REST API.
//
// Requests carry a short-lived HS256 service token identifying the user and
// an X-Request-ID header. Only reads are retried; a mutation is sent exactly
// once so the sync coordinator can roll back on failure without risking a
// duplicate write.
package httpgateway
