// Package server coordinates room membership, message broadcast, and
// connection cleanup for the anonchat WebSocket system via the Hub type.
package server

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"
)

// Hub is the room registry: it tracks which client connections belong to
// which room, assigns each connection its anonymous identity, and fans
// messages out to room members. All registry state lives behind a single
// mutex; connection I/O always happens outside the critical section so one
// slow client cannot stall registry operations for all rooms.
//
// A Hub is constructed explicitly with NewHub and shared by reference with
// the HTTP handlers; there is no package-level instance.
type Hub struct {
	rooms      map[string]map[*Client]Identity
	broadcast  chan BroadcastMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates and initializes a new Hub instance with an empty room
// registry and all coordination channels. The returned Hub is ready to
// manage WebSocket connections once Run is started.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		rooms:      make(map[string]map[*Client]Identity),
		broadcast:  make(chan BroadcastMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// GetRegisterChan returns the channel used for registering new clients with
// the hub. This channel is write-only from the caller's perspective.
func (h *Hub) GetRegisterChan() chan<- *Client {
	return h.register
}

// GetUnregisterChan returns the channel used for unregistering clients from
// the hub. This channel is write-only from the caller's perspective.
func (h *Hub) GetUnregisterChan() chan<- *Client {
	return h.unregister
}

// GetBroadcastChan returns the channel used for broadcasting envelopes to a
// room. This channel is write-only from the caller's perspective.
func (h *Hub) GetBroadcastChan() chan<- BroadcastMessage {
	return h.broadcast
}

// Join assigns a fresh Identity to the client and inserts it into its room,
// creating the room on first join. The identity is regenerated on the rare
// nickname collision, so no two live connections ever share a nickname.
func (h *Hub) Join(client *Client) Identity {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	identity := NewIdentity()
	for h.nickInUse(identity.Nick) {
		identity = NewIdentity()
	}

	members := h.rooms[client.room]
	if members == nil {
		members = make(map[*Client]Identity)
		h.rooms[client.room] = members
	}
	members[client] = identity

	return identity
}

// nickInUse reports whether any live connection in any room holds nick.
// Callers must hold the mutex.
func (h *Hub) nickInUse(nick string) bool {
	for _, members := range h.rooms {
		for _, identity := range members {
			if identity.Nick == nick {
				return true
			}
		}
	}
	return false
}

// Leave removes the client from its room and returns the Identity it held.
// The room is deleted from the registry the moment its last member leaves,
// so an empty room is never observable. The second return value is false
// when the client was already absent, e.g. swept earlier by a failed send.
func (h *Hub) Leave(client *Client) (Identity, bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	members, ok := h.rooms[client.room]
	if !ok {
		return Identity{}, false
	}
	identity, ok := members[client]
	if !ok {
		return Identity{}, false
	}

	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, client.room)
	}
	return identity, true
}

// Members returns a point-in-time copy of the room's member connections.
// Callers iterate the snapshot without holding the registry lock.
func (h *Hub) Members(room string) []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	members := h.rooms[room]
	snapshot := make([]*Client, 0, len(members))
	for client := range members {
		snapshot = append(snapshot, client)
	}
	return snapshot
}

// IdentityOf looks up the client's current identity in the registry.
func (h *Hub) IdentityOf(client *Client) (Identity, bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	identity, ok := h.rooms[client.room][client]
	return identity, ok
}

// ActiveRooms returns the names of all rooms with at least one member,
// sorted so the ordering is stable within a snapshot. The result is never
// nil.
func (h *Hub) ActiveRooms() []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	names := make([]string, 0, len(h.rooms))
	for name := range h.rooms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// roomActive reports whether the room currently exists in the registry.
func (h *Hub) roomActive(room string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, ok := h.rooms[room]
	return ok
}

// Run starts the hub's main event loop, handling client registration,
// unregistration, and room broadcasts. Funneling every broadcast through
// this single goroutine is what serializes delivery order within a room.
// This method should be called in a separate goroutine as it runs until
// Shutdown cancels it.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				log.Printf("Received nil client registration; skipping")
				continue
			}
			h.handleRegister(client)

		case client := <-h.unregister:
			if client == nil {
				continue
			}
			h.handleUnregister(client)

		case broadcastMsg := <-h.broadcast:
			h.deliver(broadcastMsg.Room, broadcastMsg.Payload)
		}
	}
}

// handleRegister joins the client into its room, delivers its meta envelope,
// starts the connection pumps, and announces the arrival. The meta envelope
// is queued on the client's fresh send buffer before any broadcast can reach
// it, so a client always learns its own identity first.
func (h *Hub) handleRegister(client *Client) {
	client.identity = h.Join(client)

	meta, err := json.Marshal(NewMetaEnvelope(client.identity))
	if err != nil {
		log.Printf("Error encoding meta envelope for client %s: %v", client.id, err)
	} else {
		client.send <- meta
	}

	log.Printf("Client %s from %s joined room %q as %s", client.id, client.addr, client.room, client.identity.Nick)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()

	h.announce(client.room, NewSystemEnvelope(client.identity.Nick+" joined.", SystemJoin))
	h.announce(client.room, NewRoomsEnvelope(h.ActiveRooms()))
}

// handleUnregister removes a departing client from the registry and
// announces the departure to whoever remains. A client whose registry entry
// was already swept still gets a leave notice, under the fallback name,
// since the sweep itself never announces anything. The room-list update is
// skipped when the room died with this member; there is nobody left in it
// to tell, and broadcasting would not resurrect it anyway.
func (h *Hub) handleUnregister(client *Client) {
	identity, ok := h.Leave(client)

	nick := identity.Nick
	if ok {
		h.mutex.Lock()
		client.closed = true
		h.mutex.Unlock()
		// Close the channel after releasing the lock.
		close(client.send)
		log.Printf("Client %s left room %q", client.id, client.room)
	} else {
		nick = FallbackNick
	}

	h.announce(client.room, NewSystemEnvelope(nick+" left.", SystemLeave))
	if h.roomActive(client.room) {
		h.announce(client.room, NewRoomsEnvelope(h.ActiveRooms()))
	}
}

// announce serializes the envelope and delivers it to every member of room.
func (h *Hub) announce(room string, envelope Envelope) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("Error encoding %s envelope for room %q: %v", envelope.Type, room, err)
		return
	}
	h.deliver(room, payload)
}

// deliver fans one payload out to a snapshot of the room's members and
// sweeps out any member whose send failed. A dead or slow connection never
// blocks delivery to the rest of the room.
func (h *Hub) deliver(room string, payload []byte) {
	members := h.Members(room)

	var failed []*Client
	for _, client := range members {
		if !h.safeSend(client, payload) {
			failed = append(failed, client)
		}
	}

	h.sweepFailed(failed)
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in safeSend: %v", r)
		}
	}()

	// Hold the lock during the entire send attempt so the membership check
	// and the channel send cannot be split by an unregister.
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if _, member := h.rooms[client.room][client]; !member || client.closed {
		return false
	}

	// The send buffer might be full or the channel closed under us, so try
	// without blocking and let the recover above absorb a closed channel.
	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// sweepFailed prunes members whose sends failed, deleting any room that
// empties in the process. Swept members are stale entries, not an active
// disconnect event: no leave notice is emitted here. The notice arrives
// exactly once, from the dead connection's own session teardown.
func (h *Hub) sweepFailed(failed []*Client) {
	if len(failed) == 0 {
		return
	}

	h.mutex.Lock()
	var channelsToClose []chan []byte
	for _, client := range failed {
		members, ok := h.rooms[client.room]
		if !ok {
			continue
		}
		if _, member := members[client]; !member {
			continue
		}
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, client.room)
		}
		client.closed = true
		channelsToClose = append(channelsToClose, client.send)
		log.Printf("Client %s removed from room %q due to full send buffer", client.id, client.room)
	}
	h.mutex.Unlock()

	// Close channels after releasing the lock.
	for _, ch := range channelsToClose {
		close(ch)
	}
}

// shutdownClients closes every active client connection across all rooms.
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0)
	for _, members := range h.rooms {
		for client := range members {
			clients = append(clients, client)
		}
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Error closing client connection from %s: %v", client.addr, err)
				}
			}
		}
	}

	log.Printf("Closed %d client connections", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all pump
// goroutines to complete. It returns after all client connections are closed
// and goroutines have finished, or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.cancel()

	// Wait for Run() to complete.
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
