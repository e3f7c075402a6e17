// Package models contains data types and constants for the tactics assistant API.
package models

// Backend defaults
const (
	DefaultBaseURL = "http://127.0.0.1:5000"

	PathTactics = "/api/tactics"
	PathHealth  = "/api/test"
)

// DefaultHeaders returns the headers sent with every backend request
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/x-ndjson, application/json",
		"User-Agent":   "tacticscoach/0.1",
	}
}
