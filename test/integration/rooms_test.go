// Package integration contains integration tests for room scoping: message
// isolation between rooms, the room directory endpoint, and cleanup of
// emptied rooms after disconnects.
package integration

import (
	"testing"
	"time"

	"github.com/gamerjani006/anonchat/internal/server"
	"github.com/gamerjani006/anonchat/test/testhelpers"
)

// waitForRooms polls the room directory until it matches want or the
// deadline passes. Leave processing is asynchronous relative to the client
// closing its connection, so directory checks after a disconnect have to
// poll.
func waitForRooms(t *testing.T, baseURL string, want []string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	var got []string
	for time.Now().Before(deadline) {
		got = testhelpers.FetchRoomList(t, baseURL)
		if equalStrings(got, want) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("Room directory never reached %v, last saw %v", want, got)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestRoomIsolation verifies that a message sent in one room is never
// delivered to members of another, while the directory lists both rooms.
func TestRoomIsolation(t *testing.T) {
	_, testServer, wsURL := startChatServer(t)

	alpha := dialRoom(t, wsURL, "alpha", testServerURL(t))
	drainWelcome(t, alpha)

	beta := dialRoom(t, wsURL, "beta", testServerURL(t))
	drainWelcome(t, beta)

	if rooms := testhelpers.FetchRoomList(t, testServer.URL); !equalStrings(rooms, []string{"alpha", "beta"}) {
		t.Errorf("Expected directory [alpha beta], got %v", rooms)
	}

	sendChat(t, alpha, "hello alpha")

	// The sender gets its own message back; the other room gets nothing.
	msg := readEnvelope(t, alpha)
	if msg.Type != server.EnvelopeMsg || msg.Text != "hello alpha" {
		t.Fatalf("Expected own message back in alpha, got %+v", msg)
	}
	expectNoMessage(t, beta, 300*time.Millisecond)
}

// TestLeaveNotice verifies that remaining members see a leave notice with
// the departing member's nickname followed by a fresh room list.
func TestLeaveNotice(t *testing.T) {
	_, _, wsURL := startChatServer(t)

	leaver := dialRoom(t, wsURL, "gamma", testServerURL(t))
	leaverIdentity := drainWelcome(t, leaver)

	stayer := dialRoom(t, wsURL, "gamma", testServerURL(t))
	drainWelcome(t, stayer)
	drainPeerJoin(t, leaver)

	if err := leaver.Close(); err != nil {
		t.Fatalf("Failed to close leaver connection: %v", err)
	}

	notice := readEnvelope(t, stayer)
	if notice.Type != server.EnvelopeSystem || notice.System != server.SystemLeave {
		t.Fatalf("Expected system leave notice, got %+v", notice)
	}
	if notice.Text != leaverIdentity.Nick+" left." {
		t.Errorf("Expected leave notice for %q, got %q", leaverIdentity.Nick, notice.Text)
	}

	rooms := readEnvelope(t, stayer)
	if rooms.Type != server.EnvelopeRooms {
		t.Fatalf("Expected rooms envelope after leave, got %+v", rooms)
	}
	if len(rooms.Rooms) != 1 || rooms.Rooms[0] != "gamma" {
		t.Errorf("Expected rooms [gamma], got %v", rooms.Rooms)
	}
}

// TestEmptiedRoomDisappears verifies that once the sole member of a room
// disconnects, the room vanishes from the directory while other rooms stay
// untouched.
func TestEmptiedRoomDisappears(t *testing.T) {
	_, testServer, wsURL := startChatServer(t)

	doomed := dialRoom(t, wsURL, "doomed", testServerURL(t))
	drainWelcome(t, doomed)

	survivor := dialRoom(t, wsURL, "survivor", testServerURL(t))
	drainWelcome(t, survivor)

	waitForRooms(t, testServer.URL, []string{"doomed", "survivor"})

	if err := doomed.Close(); err != nil {
		t.Fatalf("Failed to close connection: %v", err)
	}

	waitForRooms(t, testServer.URL, []string{"survivor"})

	// The survivor's room is unaffected by the other room dying.
	sendChat(t, survivor, "still here")
	msg := readEnvelope(t, survivor)
	if msg.Type != server.EnvelopeMsg || msg.Text != "still here" {
		t.Fatalf("Expected survivor's message back, got %+v", msg)
	}
}

// TestRoomReuseAfterEmpty verifies that a room name can be joined again
// after the room was destroyed, yielding a fresh room.
func TestRoomReuseAfterEmpty(t *testing.T) {
	hub, testServer, wsURL := startChatServer(t)

	first := dialRoom(t, wsURL, "phoenix", testServerURL(t))
	drainWelcome(t, first)
	if err := first.Close(); err != nil {
		t.Fatalf("Failed to close connection: %v", err)
	}
	waitForRooms(t, testServer.URL, []string{})

	second := dialRoom(t, wsURL, "phoenix", testServerURL(t))
	drainWelcome(t, second)

	if rooms := hub.ActiveRooms(); !equalStrings(rooms, []string{"phoenix"}) {
		t.Errorf("Expected active rooms [phoenix], got %v", rooms)
	}
	if members := hub.Members("phoenix"); len(members) != 1 {
		t.Errorf("Expected a single member in the reborn room, got %d", len(members))
	}
}
