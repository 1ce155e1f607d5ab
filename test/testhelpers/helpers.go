// Package testhelpers provides common utilities and helper functions for
// testing the anonchat server.
//
// This package contains reusable test utilities that are shared across unit
// and integration tests. It provides functions for creating test servers,
// making HTTP requests, and asserting response properties to reduce code
// duplication in test files.
package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gamerjani006/anonchat/internal/server"
)

// CreateTestServer creates a test HTTP server with the given handler.
// It returns a running httptest.Server that should be closed after use.
func CreateTestServer(handler http.Handler) *httptest.Server {
	return httptest.NewServer(handler)
}

// AssertStatusCode checks if the HTTP response has the expected status code.
// It fails the test with a descriptive error message if the status codes
// don't match.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks if the HTTP response has the expected
// Content-Type header. It fails the test with a descriptive error message if
// the content types don't match.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	contentType := resp.Header.Get("Content-Type")
	if contentType != expected {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}

// MakeRequest creates and executes an HTTP request, returning the response.
// It includes a 5-second timeout and fails the test if the request cannot be
// created or executed successfully.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create %s request for %s: %v", method, url, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to execute %s request for %s: %v", method, url, err)
	}
	return resp
}

// FetchRoomList requests the room directory endpoint and decodes the
// response body. The response body is closed before returning.
func FetchRoomList(t *testing.T, baseURL string) []string {
	t.Helper()

	resp := MakeRequest(t, http.MethodGet, baseURL+"/rooms")
	defer func() { _ = resp.Body.Close() }()

	AssertStatusCode(t, resp, http.StatusOK)

	var list server.RoomList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("Failed to decode room list: %v", err)
	}
	return list.Rooms
}
