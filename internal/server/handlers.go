// Package server exposes HTTP handlers, including WebSocket upgrades, the
// room directory, health checks, and the built-in chat page.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// RoomList is the response body of the room directory endpoint.
type RoomList struct {
	Rooms []string `json:"rooms"`
}

// WebSocketHandler returns a handler that upgrades the connection and hands
// it to the hub. The target room comes from the "room" query parameter and
// defaults to DefaultRoom when absent or empty; the hub assigns the identity
// and starts the client's read/write pumps.
func WebSocketHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		room := r.URL.Query().Get("room")
		if room == "" {
			room = DefaultRoom
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		// Register the client with the hub; the hub will deliver the meta
		// envelope and launch the pump goroutines.
		hub.register <- NewClient(conn, hub, room, r.RemoteAddr)
	}
}

// RoomsHandler returns a handler for the room directory: the names of all
// rooms that currently have at least one member. The list is always a JSON
// array, empty when nobody is connected.
func RoomsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed.", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(RoomList{Rooms: hub.ActiveRooms()}); err != nil {
			log.Printf("Error writing room list response: %v", err)
		}
	}
}

// HealthHandler provides a simple health check endpoint that returns server
// status. It responds with a plain text message indicating the server is
// running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "anonchat server is running!")
}

// ChatPageHandler serves the single-page chat client. It provides the room
// list sidebar, a join box, and a message composer wired to the WebSocket
// endpoint and the room directory.
func ChatPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, chatPageHTML); err != nil {
		log.Printf("Error writing HTML response: %v", err)
	}
}

const chatPageHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width,initial-scale=1" />
  <title>Anonymous Rooms</title>
  <style>
    :root{--bg:#0f1724;--muted:#9aa4b2;--accent:#7dd3fc}
    *{box-sizing:border-box}
    body{margin:0;min-height:100vh;background:linear-gradient(180deg,var(--bg),#071020);font-family:Inter,Segoe UI,Roboto,Arial;color:#e6eef6}
    .wrap{max-width:900px;margin:36px auto;padding:18px}
    .card{background:rgba(255,255,255,0.02);border-radius:12px;padding:14px;box-shadow:0 6px 18px rgba(2,6,23,0.6)}
    header{display:flex;gap:12px;align-items:center;justify-content:space-between}
    h1{font-size:18px;margin:0}
    input[type=text],input[type=search]{background:transparent;border:1px solid rgba(255,255,255,0.06);padding:8px 10px;border-radius:8px;color:inherit}
    button{background:var(--accent);border:none;padding:8px 12px;border-radius:8px;color:#002;cursor:pointer;font-weight:600}
    .layout{display:grid;grid-template-columns:1fr 2fr;gap:12px;margin-top:12px}
    .room-list{display:flex;flex-direction:column;gap:8px}
    .room-item{padding:8px;border-radius:8px;background:rgba(255,255,255,0.02);cursor:pointer}
    .chat{display:flex;flex-direction:column;height:70vh}
    .messages{flex:1;overflow:auto;padding:12px;display:flex;flex-direction:column;gap:10px}
    .composer{display:flex;gap:8px;padding:8px;border-top:1px solid rgba(255,255,255,0.03)}
    .composer input{flex:1;padding:10px;border-radius:8px;border:1px solid rgba(255,255,255,0.04);background:transparent;color:inherit}
    .msg{display:flex;gap:10px;align-items:flex-start}
    .avatar{width:36px;height:36px;border-radius:10px;display:flex;align-items:center;justify-content:center;font-weight:700}
    .bubble{max-width:80%;padding:10px;border-radius:10px;background:rgba(255,255,255,0.03)}
    .meta{font-size:12px;color:var(--muted)}
    .note{font-size:13px;color:var(--muted);margin:8px 0}
    @media(max-width:880px){.layout{grid-template-columns:1fr}}
  </style>
</head>
<body>
  <div class="wrap">
    <div class="card">
      <header>
        <h1>Anonymous Rooms</h1>
        <div>
          <input id="roomInput" type="search" placeholder="room name (press Join)" />
          <button id="joinBtn">Join</button>
        </div>
      </header>
      <div class="layout">
        <aside>
          <div class="note">Tip: open the same URL in multiple tabs to test. Rooms are ephemeral and anonymous.</div>
          <div class="room-list card" id="roomList"></div>
        </aside>
        <main class="chat card">
          <div style="padding:8px;display:flex;justify-content:space-between;align-items:center">
            <div>
              <strong id="roomName">Not connected</strong>
              <div class="meta" id="userMeta"></div>
            </div>
            <div class="meta">No login &bull; Minimal &bull; Anonymous</div>
          </div>
          <div class="messages" id="messages"></div>
          <div class="composer">
            <input id="msgInput" placeholder="Say something..." autocomplete="off" />
            <button id="sendBtn">Send</button>
          </div>
        </main>
      </div>
    </div>
  </div>
<script>
(() => {
  const params = new URLSearchParams(location.search);
  const defaultRoom = params.get('room') || '';
  const roomInput = document.getElementById('roomInput');
  const joinBtn = document.getElementById('joinBtn');
  const roomList = document.getElementById('roomList');
  const roomName = document.getElementById('roomName');
  const userMeta = document.getElementById('userMeta');
  const messages = document.getElementById('messages');
  const msgInput = document.getElementById('msgInput');
  const sendBtn = document.getElementById('sendBtn');

  let ws = null;

  function esc(s){ return String(s).replace(/&/g,'&amp;').replace(/</g,'&lt;').replace(/>/g,'&gt;'); }

  function pushMsg(el){ messages.appendChild(el); messages.scrollTop = messages.scrollHeight; }

  function makeBubble(payload){
    const wrap = document.createElement('div'); wrap.className='msg';
    const avatar = document.createElement('div'); avatar.className='avatar';
    avatar.textContent = payload.nick.slice(0,2).toUpperCase();
    avatar.style.background = payload.color;
    const box = document.createElement('div');
    const header = document.createElement('div'); header.className='meta';
    header.textContent = payload.nick + (payload.system ? ' • ' + payload.system : '');
    const bubble = document.createElement('div'); bubble.className='bubble'; bubble.innerHTML = esc(payload.text);
    box.appendChild(header); box.appendChild(bubble);
    wrap.appendChild(avatar); wrap.appendChild(box);
    return wrap;
  }

  function updateRooms(list){
    roomList.innerHTML = '';
    list.forEach(r => {
      const item = document.createElement('div');
      item.className = 'room-item';
      item.textContent = r;
      item.onclick = () => joinRoom(r);
      roomList.appendChild(item);
    });
  }

  function joinRoom(r){
    if (ws) { ws.close(); ws = null; }
    messages.innerHTML = '';
    roomName.textContent = r;
    roomInput.value = r;
    const loc = (location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws?room=' + encodeURIComponent(r);
    ws = new WebSocket(loc);
    ws.addEventListener('message', ev => {
      try {
        const payload = JSON.parse(ev.data);
        if (payload.type === 'meta') { userMeta.textContent = 'You: ' + payload.you.nick; }
        if (payload.type === 'rooms') { updateRooms(payload.rooms); }
        if (payload.type === 'msg' || payload.type === 'system') { pushMsg(makeBubble(payload)); }
      } catch (e) { console.error(e); }
    });
    ws.addEventListener('close', () => {
      pushMsg(makeBubble({nick:'System', text:'Disconnected.', color:'#333', system:'status'}));
    });
  }

  joinBtn.onclick = () => {
    const r = roomInput.value.trim();
    if (!r) return alert('Choose a room name');
    joinRoom(r);
    history.replaceState(null, '', '?room=' + encodeURIComponent(r));
  };
  sendBtn.onclick = () => {
    const t = msgInput.value.trim();
    if (!t) return;
    if (!ws || ws.readyState !== WebSocket.OPEN) return alert('Not connected');
    ws.send(JSON.stringify({type:'msg', text:t}));
    msgInput.value = '';
  };
  msgInput.addEventListener('keydown', e => { if (e.key === 'Enter') sendBtn.click(); });

  fetch('/rooms').then(r => r.json()).then(data => {
    updateRooms(data.rooms);
    if (defaultRoom) joinRoom(defaultRoom);
  });
})();
</script>
</body>
</html>`
