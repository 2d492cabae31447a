// Package api provides the gateway HTTP server for inspecting and driving
// the sweeper assistant: robot state, transcript history, and a text chat
// entry point.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string
}

// ErrorResponse is the JSON error envelope returned by the API.
type ErrorResponse struct {
	Error string `json:"error"`
}
