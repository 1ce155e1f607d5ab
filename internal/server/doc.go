// Package server implements the core HTTP and WebSocket functionality for the
// anonchat service: anonymous, ephemeral, room-scoped broadcast chat.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, identities, routing, and HTTP handlers to keep the
// codebase maintainable and testable as the project grows.
package server
