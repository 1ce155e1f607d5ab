// Package server wires HTTP handlers into a ServeMux for the anonchat
// application via routing helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with all application
// routes bound to the given hub. It sets up handlers for the chat page, the
// room directory, the WebSocket endpoint, and the health check.
func SetupRoutes(hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", ChatPageHandler)
	mux.HandleFunc("/rooms", RoomsHandler(hub))
	mux.HandleFunc("/ws", WebSocketHandler(hub))
	mux.HandleFunc("/healthz", HealthHandler)
	return mux
}
