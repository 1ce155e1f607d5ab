package unit

import (
	"testing"
	"time"

	"github.com/gamerjani006/anonchat/internal/server"
)

// TestNewClient tests the client creation function.
// It verifies that NewClient returns a properly initialized Client bound to
// its room with all necessary channels set up correctly.
func TestNewClient(t *testing.T) {
	hub := server.NewHub()

	client := server.NewClient(nil, hub, "general", "127.0.0.1:12345")

	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.Room() != "general" {
		t.Errorf("Expected room %q, got %q", "general", client.Room())
	}
	if client.GetSendChan() == nil {
		t.Error("Client send channel is nil")
	}
}

// TestClientSendChannel tests the client's send channel functionality.
// It verifies that a fresh client has nothing queued for delivery.
func TestClientSendChannel(t *testing.T) {
	hub := server.NewHub()
	client := server.NewClient(nil, hub, "general", "127.0.0.1:12345")

	select {
	case <-client.GetSendChan():
		t.Error("Expected empty send channel but received a message")
	case <-time.After(10 * time.Millisecond):
	}
}
