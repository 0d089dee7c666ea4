package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// DefaultChannelID is used when a message arrives without a ChannelID.
const DefaultChannelID = "default"

// turnErrorMessage is sent to the client when a turn fails with no reply.
// Error detail stays in the server log.
const turnErrorMessage = "Sorry, something went wrong. Please try again."

// WSMessage is the JSON message protocol for the WebSocket gateway.
// Example: {"type": "chat", "content": "do you have rice?", "channelId": "general"}
type WSMessage struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	ChannelID string `json:"channelId,omitempty"`
}

// jsonMarshal is used when encoding WSMessage; tests may replace it to force
// Marshal errors. Access is protected by jsonMarshalMu for race-safe swaps.
var (
	jsonMarshalMu sync.RWMutex
	jsonMarshal   = json.Marshal
)

// Default upgrader for WebSocket connections.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request to WebSocket and runs a read loop, responding
// on the same connection. Each channel on a connection maps to its own
// session, so two clients (or two channels) never share a cart. Sessions are
// connection-scoped: a new connection always starts empty.
//
// "chat" messages run a full assistant turn through the session's lane so
// concurrent sends on one channel commit in order. typing_start/typing_stop
// frames bracket the turn. Other message types are echoed.
// Only GET is accepted for the WebSocket handshake.
func HandleWS(w http.ResponseWriter, r *http.Request, reg *SessionRegistry, queue *TurnQueue) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Connection-scoped prefix keeps sessions isolated between connections
	// even when they use the same channel ID.
	connID := uuid.NewString()
	channels := make(map[string]string) // channelID -> sessionID

	var writeMu sync.Mutex
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var in WSMessage
		if err := json.Unmarshal(raw, &in); err != nil {
			reply := WSMessage{Type: "error", Content: "invalid JSON"}
			writeWSMessage(conn, &writeMu, &reply)
			continue
		}

		channelID := in.ChannelID
		if channelID == "" {
			channelID = DefaultChannelID
		}

		if in.Type != "chat" || reg == nil {
			out := WSMessage{Type: in.Type, Content: "echo: " + in.Content, ChannelID: channelID}
			writeWSMessage(conn, &writeMu, &out)
			continue
		}

		sessionID, ok := channels[channelID]
		if !ok {
			sessionID = connID + "/" + channelID
			channels[channelID] = sessionID
		}

		typingStart := WSMessage{Type: "typing_start", ChannelID: channelID}
		writeWSMessage(conn, &writeMu, &typingStart)

		var content string
		err = queue.Do(r.Context(), sessionID, func() error {
			sess, err := reg.Acquire(sessionID)
			if err != nil {
				return err
			}
			reply, err := sess.Assistant.ProcessMessage(r.Context(), in.Content)
			content = reply
			return err
		})
		if err != nil && content == "" {
			slog.Error("turn failed", "session", sessionID, "error", err)
			content = turnErrorMessage
		}

		out := WSMessage{Type: in.Type, Content: content, ChannelID: channelID}
		writeWSMessage(conn, &writeMu, &out)

		typingStop := WSMessage{Type: "typing_stop", ChannelID: channelID}
		writeWSMessage(conn, &writeMu, &typingStop)
	}

	// Drop this connection's sessions; the idle sweep would get them
	// eventually, but there is no way to reconnect to them.
	for _, sessionID := range channels {
		reg.Remove(sessionID)
	}
}

func writeWSMessage(conn *websocket.Conn, mu *sync.Mutex, msg *WSMessage) {
	jsonMarshalMu.RLock()
	marshal := jsonMarshal
	jsonMarshalMu.RUnlock()
	data, err := marshal(msg)
	if err != nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	_ = conn.WriteMessage(websocket.TextMessage, data)
}
