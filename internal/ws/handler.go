package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/collab-code-editor/backend/internal/language"
	"github.com/collab-code-editor/backend/internal/state"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Documents can be large, so
	// this is well above a keystroke-sized bound.
	maxMessageSize = 512 * 1024

	// ExecutingNotice is broadcast to every participant the moment a
	// runCode message is accepted, before the pipeline starts.
	ExecutingNotice = "Executing locally..."
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking in production
		return true
	},
}

// Executor abstracts the execution pipeline. Execute is total: it returns
// output text for every outcome, never an error.
type Executor interface {
	Execute(ctx context.Context, lang language.ID, source string) string
}

// Handler owns the message table of the synchronization protocol: it
// validates inbound messages, applies them to the store, and fans out the
// resulting notifications.
type Handler struct {
	hub      *Hub
	store    *state.Store
	registry *language.Registry
	exec     Executor
}

// NewHandler creates a Handler over the given hub, store, and pipeline.
func NewHandler(hub *Hub, store *state.Store, registry *language.Registry, exec Executor) *Handler {
	return &Handler{
		hub:      hub,
		store:    store,
		registry: registry,
		exec:     exec,
	}
}

// HandleConnection upgrades the HTTP request, registers the participant,
// sends the initial state snapshot, and starts the read and write pumps.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := NewClient(h.hub, conn)
	h.hub.Register(client)

	h.sendInitialState(client)

	go h.writePump(client)
	go h.readPump(client)

	return nil
}

// sendInitialState delivers the current snapshot to the sender only: the
// active language, its stored code, and the last execution output.
func (h *Handler) sendInitialState(client *Client) {
	lang, code, output := h.store.Snapshot()

	data, err := json.Marshal(NewInitialState(lang, code, output))
	if err != nil {
		log.Printf("Failed to marshal initial state: %v", err)
		return
	}
	client.Send(data)
}

// dispatch routes one decoded message to its handler. The switch is
// exhaustive over the closed Inbound set.
func (h *Handler) dispatch(client *Client, msg Inbound) {
	switch m := msg.(type) {
	case CodeChange:
		h.handleCodeChange(client, m)
	case LanguageChange:
		h.handleLanguageChange(m)
	case RunCode:
		h.handleRunCode(m)
	}
}

// handleCodeChange stores the edit and notifies every participant except
// the sender, whose editor already shows the text.
func (h *Handler) handleCodeChange(client *Client, msg CodeChange) {
	if !h.registry.Known(msg.Lang) {
		return
	}

	h.store.Set(msg.Lang, msg.Code)

	if err := h.hub.BroadcastMessageExcept(client, NewCodeUpdate(msg.Lang, msg.Code)); err != nil {
		log.Printf("Failed to broadcast code update: %v", err)
	}
}

// handleLanguageChange switches the active language and notifies every
// participant, sender included, so its own view converges too.
func (h *Handler) handleLanguageChange(msg LanguageChange) {
	if !h.registry.Known(msg.Lang) {
		return
	}

	h.store.SetActive(msg.Lang)

	if err := h.hub.BroadcastMessage(NewLanguageUpdate(msg.Lang, h.store.Get(msg.Lang))); err != nil {
		log.Printf("Failed to broadcast language update: %v", err)
	}
}

// handleRunCode broadcasts the executing notice synchronously, then runs
// the pipeline off the read loop so other participants' messages keep
// being serviced while the run is in flight.
func (h *Handler) handleRunCode(msg RunCode) {
	if !h.registry.Known(msg.Lang) {
		return
	}

	if err := h.hub.BroadcastMessage(NewOutputUpdate(ExecutingNotice)); err != nil {
		log.Printf("Failed to broadcast executing notice: %v", err)
	}

	go func() {
		// Disconnection of the requester must not abort the run, so the
		// pipeline gets a fresh context rather than the connection's.
		output := h.exec.Execute(context.Background(), msg.Lang, msg.Code)

		h.store.SetLastOutput(output)

		if err := h.hub.BroadcastMessage(NewOutputUpdate(output)); err != nil {
			log.Printf("Failed to broadcast output update: %v", err)
		}
	}()
}

// readPump pumps messages from the WebSocket connection into the dispatch
// table. Messages from one connection are processed in arrival order.
func (h *Handler) readPump(client *Client) {
	defer func() {
		h.hub.Unregister(client)
		client.Conn().Close()
	}()

	client.Conn().SetReadLimit(maxMessageSize)
	client.Conn().SetReadDeadline(time.Now().Add(pongWait))
	client.Conn().SetPongHandler(func(string) error {
		client.Conn().SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := client.Conn().ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		msg, err := DecodeInbound(payload)
		if err != nil {
			// Malformed or unknown messages are dropped, not fatal.
			log.Printf("Dropping inbound message: %v", err)
			continue
		}

		h.dispatch(client, msg)
	}
}

// writePump pumps queued messages to the WebSocket connection, one frame
// per message, and keeps the connection alive with pings.
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn().Close()
	}()

	for {
		select {
		case message, ok := <-client.SendChan():
			client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				client.Conn().WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn().WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Drain queued messages, each in its own frame so clients can
			// parse every payload independently.
			n := len(client.SendChan())
			for i := 0; i < n; i++ {
				queued := <-client.SendChan()
				client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.Conn().WriteMessage(websocket.TextMessage, queued); err != nil {
					return
				}
			}
		case <-ticker.C:
			client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn().WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
