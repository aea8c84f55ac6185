// kanarace
//
// Players race to type Japanese words in romaji. Each browser holds one
// websocket; rooms, rounds and scoring live in games/match, and this file
// only moves messages between sockets and the registry.
//
// Features:
// - One websocket per browser at /ws, identified by a random player id
// - Any number of rooms per connection; closing the socket leaves them all
// - Public rooms are pushed to every connection whenever the listing changes
// - Room snapshots as JSON at /race/:roomid
// - In-browser QR button to share a room, backed by go-qrcode

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"

	"github.com/Seednode/kanarace/games/match"
	"github.com/Seednode/kanarace/games/words"
)

const (
	sendBuffer     = 64
	maxMessageSize = 4096
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10

	// Progress is reported on every keystroke, so the budget is generous.
	messageRate  = 40
	messageBurst = 80
)

var errRateLimited = errors.New("too many messages, slow down")

type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID string
	limiter  *rate.Limiter
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		playerID: uuid.NewString(),
		limiter:  rate.NewLimiter(messageRate, messageBurst),
	}
}

func (c *Client) allow() bool {
	return c.limiter == nil || c.limiter.Allow()
}

// Hub tracks connected clients and implements match.Notifier.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	log zerolog.Logger
}

func newHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		log:     log,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.playerID] = c
}

// unregister forgets c and closes its send queue. It reports whether c was
// still registered.
func (h *Hub) unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.playerID] != c {
		return false
	}

	delete(h.clients, c.playerID)
	close(c.send)

	return true
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// enqueueLocked never blocks. A client that cannot keep up is disconnected;
// its read pump then unregisters it.
func (h *Hub) enqueueLocked(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.log.Warn().Str("player_id", c.playerID).Msg("send queue full, dropping client")

		_ = c.conn.Close()
	}
}

func (h *Hub) encode(ev match.Event) ([]byte, bool) {
	data, err := match.Encode(ev)
	if err != nil {
		h.log.Error().Err(err).Str("event", ev.Kind()).Msg("encoding event")

		return nil, false
	}

	return data, true
}

func (h *Hub) Send(playerID string, ev match.Event) {
	data, ok := h.encode(ev)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if c, ok := h.clients[playerID]; ok {
		h.enqueueLocked(c, data)
	}
}

func (h *Hub) Broadcast(ev match.Event) {
	data, ok := h.encode(ev)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		h.enqueueLocked(c, data)
	}
}

// closeAll disconnects every client.
func (h *Hub) closeAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		_ = c.conn.Close()
	}
}

func newUpgrader(cfg *Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return cfg.originAllowed(r.Header.Get("Origin"))
		},
	}
}

func serveWS(cfg *Config, hub *Hub, registry *match.Registry) httprouter.Handle {
	upgrader := newUpgrader(cfg)

	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.log.Debug().Err(err).Str("remote", realIP(r)).Msg("websocket upgrade failed")

			return
		}

		client := newClient(conn)

		hub.register(client)
		hub.log.Debug().Str("player_id", client.playerID).Str("remote", realIP(r)).Msg("client connected")

		hub.Send(client.playerID, match.PublicRooms{Rooms: registry.PublicRooms()})

		go client.writePump()
		client.readPump(hub, registry)
	}
}

func (c *Client) readPump(h *Hub, registry *match.Registry) {
	defer func() {
		if h.unregister(c) {
			registry.Disconnect(c.playerID)
		}
		_ = c.conn.Close()

		h.log.Debug().Str("player_id", c.playerID).Msg("client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Str("player_id", c.playerID).Msg("unexpected close")
			}

			return
		}

		if !c.allow() {
			h.Send(c.playerID, match.Error{Message: errRateLimited.Error()})

			continue
		}

		cmd, err := match.DecodeCommand(data)
		if err != nil {
			h.Send(c.playerID, match.Error{Message: err.Error()})

			continue
		}

		_ = registry.Dispatch(c.playerID, cmd)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})

				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any, errs chan<- error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		errs <- err
	}
}

func serveRooms(cfg *Config, registry *match.Registry, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(cfg, w, http.StatusOK, registry.PublicRooms(), errs)
	}
}

func serveTiers(cfg *Config, library *words.Library, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(cfg, w, http.StatusOK, library.Summaries(), errs)
	}
}

func serveRoomState(cfg *Config, registry *match.Registry, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, ok := registry.Room(ps.ByName("roomid"))
		if !ok {
			writeJSON(cfg, w, http.StatusNotFound, match.Error{Message: match.ErrRoomNotFound.Error()}, errs)

			return
		}

		writeJSON(cfg, w, http.StatusOK, room.State(), errs)
	}
}

// joinURL is where a scanned share code lands: the home page with the
// room preselected.
func joinURL(cfg *Config, r *http.Request, roomID string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host + cfg.prefix + "/?room=" + url.QueryEscape(roomID)
}

func serveQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID := strings.ToUpper(ps.ByName("roomid"))
		if roomID == "" {
			http.Error(w, "missing room id", http.StatusBadRequest)
			return
		}

		const qrSize = 320
		png, err := qrcode.Encode(joinURL(cfg, r, roomID), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		if _, err := w.Write(png); err != nil {
			errs <- err
		}
	}
}

func registerRace(cfg *Config, hub *Hub, registry *match.Registry, library *words.Library, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/ws", serveWS(cfg, hub, registry))

	mux.GET(cfg.prefix+"/rooms", serveRooms(cfg, registry, errs))
	mux.GET(cfg.prefix+"/tiers", serveTiers(cfg, library, errs))

	mux.GET(cfg.prefix+"/race/:roomid", serveRoomState(cfg, registry, errs))
	mux.GET(cfg.prefix+"/race/:roomid/qr", serveQR(cfg, errs))
}
