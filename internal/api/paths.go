// Package api provides the HTTP client for the tactics assistant backend.
package api

// GJSON paths for the envelope of non-streamed bodies (health check and errors).
const (
	PathStatus  = "status"
	PathMessage = "message"
)
