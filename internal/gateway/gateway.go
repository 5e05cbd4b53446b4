package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rummy-lite/card"
	"rummy-lite/internal/protocol"
	"rummy-lite/internal/room"
	"rummy-lite/internal/session"
	"rummy-lite/rummy"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: Restrict in production
	},
}

// Conn represents a WebSocket client connection.
type Conn struct {
	ID      string
	User    string
	ws      *websocket.Conn
	send    chan []byte
	gateway *Gateway
}

// Gateway manages WebSocket connections and dispatches client intents
// to the room layer.
type Gateway struct {
	mu         sync.RWMutex
	conns      map[string]*Conn
	nextConnID uint64

	registry *room.Registry
	sessions *session.Directory
}

func New(registry *room.Registry, sessions *session.Directory) *Gateway {
	return &Gateway{
		conns:    make(map[string]*Conn),
		registry: registry,
		sessions: sessions,
	}
}

// SendToUser delivers a frame to the user's live connection, if any.
// Slow consumers have frames dropped rather than blocking the caller.
func (g *Gateway) SendToUser(user string, data []byte) {
	connID, ok := g.sessions.ConnOf(user)
	if !ok {
		return
	}
	g.mu.RLock()
	c := g.conns[connID]
	g.mu.RUnlock()
	if c == nil {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("[Gateway] Dropping frame for %s: send buffer full", user)
	}
}

func (g *Gateway) broadcastAll(data []byte) {
	for _, user := range g.sessions.Users() {
		g.SendToUser(user, data)
	}
}

// HandleWebSocket upgrades the request and binds the connection to the
// claimed user id. A user reconnecting replaces their old binding.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] Upgrade error: %v", err)
		return
	}

	user := r.URL.Query().Get("user")
	if user == "" {
		ws.WriteMessage(websocket.TextMessage,
			protocol.Encode(protocol.EventInfo, protocol.InfoPayload{Msg: "No user provided"}))
		ws.Close()
		return
	}

	g.mu.Lock()
	g.nextConnID++
	c := &Conn{
		ID:      fmt.Sprintf("conn_%d", g.nextConnID),
		User:    user,
		ws:      ws,
		send:    make(chan []byte, 256),
		gateway: g,
	}
	g.conns[c.ID] = c
	total := len(g.conns)
	g.mu.Unlock()

	if _, replaced := g.sessions.Bind(user, c.ID); replaced {
		log.Printf("[Gateway] User %s already connected, rebinding (%s)", user, c.ID)
		c.send <- protocol.Encode(protocol.EventInfo,
			protocol.InfoPayload{Msg: fmt.Sprintf("User %s already connected", user)})
	}
	log.Printf("[Gateway] User %s has connected (%s), total: %d", user, c.ID, total)
	c.send <- protocol.Encode(protocol.EventInfo,
		protocol.InfoPayload{Msg: fmt.Sprintf("User %s has connected", user)})

	go c.readPump()
	go c.writePump()
}

func (c *Conn) readPump() {
	defer func() {
		c.gateway.removeConn(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(65536)
	c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		messageType, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] Read error: %v", err)
			}
			break
		}
		if messageType == websocket.TextMessage {
			c.dispatch(message)
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) removeConn(c *Conn) {
	g.mu.Lock()
	delete(g.conns, c.ID)
	total := len(g.conns)
	g.mu.Unlock()

	if user, ok := g.sessions.Unbind(c.ID); ok {
		log.Printf("[Gateway] User %s disconnected (%s), total: %d", user, c.ID, total)
	}
}

func (c *Conn) info(msg string) {
	c.gateway.SendToUser(c.User, protocol.Encode(protocol.EventInfo, protocol.InfoPayload{Msg: msg}))
}

func (c *Conn) dispatch(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Gateway] Panic handling frame from %s: %v", c.User, r)
			c.info("Something went wrong")
		}
	}()

	env, err := protocol.Decode(data)
	if err != nil {
		c.info("Invalid message format")
		return
	}

	switch env.Event {
	case protocol.EventCreateRoom:
		c.handleCreateRoom()
	case protocol.EventRooms:
		c.handleRooms()
	case protocol.EventRoomState:
		c.handleRoomState(env.Data)
	case protocol.EventJoin:
		c.roomIntent(env.Data, func(rm *room.Room) error { return rm.Join(c.User) })
	case protocol.EventStart:
		c.roomIntent(env.Data, func(rm *room.Room) error { return rm.Start(c.User) })
	case protocol.EventKillRoom:
		c.roomIntent(env.Data, func(rm *room.Room) error { return rm.Kill(c.User) })
	case protocol.EventDraw:
		c.handleDraw(env.Data)
	case protocol.EventShed:
		c.handleShed(env.Data)
	case protocol.EventShow:
		c.handleShow(env.Data)
	case protocol.EventHand:
		c.handleHand(env.Data)
	case protocol.EventTable:
		c.handleTable(env.Data)
	case protocol.EventWinnerHand:
		c.handleWinnerHand(env.Data)
	default:
		c.info(fmt.Sprintf("Unknown event %q", env.Event))
	}
}

func (c *Conn) handleCreateRoom() {
	rm, err := c.gateway.registry.Create(c.User, c.gateway.SendToUser)
	if err != nil {
		c.info(err.Error())
		return
	}
	c.gateway.broadcastAll(protocol.Encode(protocol.EventInfo,
		protocol.InfoPayload{Msg: fmt.Sprintf("New room created (%s)", rm.ID)}))
	c.gateway.broadcastAll(protocol.Encode(protocol.EventRooms, c.gateway.roomsPayload()))
}

func (c *Conn) handleRooms() {
	c.gateway.SendToUser(c.User, protocol.Encode(protocol.EventRooms, c.gateway.roomsPayload()))
}

func (g *Gateway) roomsPayload() protocol.RoomsPayload {
	var p protocol.RoomsPayload
	for _, rm := range g.registry.List() {
		p.Rooms = append(p.Rooms, protocol.RoomStateFrom(rm.ID, rm.Snapshot()))
	}
	return p
}

func (c *Conn) handleRoomState(data json.RawMessage) {
	c.withRoom(data, func(rm *room.Room) {
		c.gateway.SendToUser(c.User,
			protocol.Encode(protocol.EventRoomState, protocol.RoomStateFrom(rm.ID, rm.Snapshot())))
	})
}

// withRoom resolves the room named in the payload and runs fn on it.
func (c *Conn) withRoom(data json.RawMessage, fn func(*room.Room)) {
	var ref protocol.RoomRef
	if err := json.Unmarshal(data, &ref); err != nil || ref.RoomID == "" {
		c.info("No room provided")
		return
	}
	rm, err := c.gateway.registry.Get(ref.RoomID)
	if err != nil {
		c.info(fmt.Sprintf("Room %s does not exist", ref.RoomID))
		return
	}
	fn(rm)
}

func (c *Conn) roomIntent(data json.RawMessage, op func(*room.Room) error) {
	c.withRoom(data, func(rm *room.Room) {
		if err := op(rm); err != nil {
			c.info(errorMessage(err, rm.ID))
		}
	})
}

func (c *Conn) handleDraw(data json.RawMessage) {
	var req protocol.DrawRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.info("Invalid message format")
		return
	}
	from := rummy.DrawSource(req.From)
	if from != rummy.DrawStock && from != rummy.DrawTable {
		c.info(fmt.Sprintf("Unknown draw source %q", req.From))
		return
	}
	c.roomIntent(data, func(rm *room.Room) error { return rm.Draw(c.User, from) })
}

func (c *Conn) handleShed(data json.RawMessage) {
	var req protocol.ShedRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.info("Invalid message format")
		return
	}
	cd, err := card.Parse(req.Card)
	if err != nil {
		c.info(fmt.Sprintf("Unknown card %q", req.Card))
		return
	}
	c.roomIntent(data, func(rm *room.Room) error { return rm.Shed(c.User, cd) })
}

func (c *Conn) handleShow(data json.RawMessage) {
	var req protocol.ShowRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.info("Invalid message format")
		return
	}
	melds, err := protocol.ParseMelds(req.Melds)
	if err != nil {
		c.info("Your hand contains an unknown card")
		return
	}
	c.roomIntent(data, func(rm *room.Room) error { return rm.Show(c.User, melds) })
}

func (c *Conn) handleHand(data json.RawMessage) {
	c.withRoom(data, func(rm *room.Room) {
		hand, err := rm.HandFor(c.User)
		if err != nil {
			c.info(errorMessage(err, rm.ID))
			return
		}
		c.gateway.SendToUser(c.User, protocol.Encode(protocol.EventHand, protocol.HandPayload{
			Hand:   protocol.CardsToWire(hand),
			RoomID: rm.ID,
		}))
	})
}

func (c *Conn) handleTable(data json.RawMessage) {
	c.withRoom(data, func(rm *room.Room) {
		table, err := rm.TableFor(c.User)
		if err != nil {
			c.info(errorMessage(err, rm.ID))
			return
		}
		c.gateway.SendToUser(c.User, protocol.Encode(protocol.EventTable, protocol.TablePayload{
			Table:  protocol.CardsToWire(table),
			RoomID: rm.ID,
		}))
	})
}

func (c *Conn) handleWinnerHand(data json.RawMessage) {
	c.withRoom(data, func(rm *room.Room) {
		melds, err := rm.WinnerHandFor(c.User)
		if err != nil {
			c.info(errorMessage(err, rm.ID))
			return
		}
		c.gateway.SendToUser(c.User, protocol.Encode(protocol.EventWinnerHand, protocol.WinnerHandPayload{
			Hand:   protocol.MeldsToWire(melds),
			RoomID: rm.ID,
		}))
	})
}

// errorMessage maps room and engine errors to the client-facing texts.
func errorMessage(err error, roomID string) string {
	switch {
	case errors.Is(err, rummy.ErrNotJoined):
		return fmt.Sprintf("You are not joined %s", roomID)
	case errors.Is(err, rummy.ErrAlreadyJoined):
		return fmt.Sprintf("You already joined %s", roomID)
	case errors.Is(err, rummy.ErrNotYourTurn):
		return "It is not your turn to play"
	case errors.Is(err, rummy.ErrNotLeader):
		return "You are not the leader."
	case errors.Is(err, rummy.ErrAlreadyStarted):
		return fmt.Sprintf("Party (%s) already started", roomID)
	case errors.Is(err, rummy.ErrInvalidPhase):
		return "You can't do that right now"
	case errors.Is(err, rummy.ErrCardNotInHand):
		return "That card is not in your hand"
	case errors.Is(err, rummy.ErrIllegalPickupDiscard):
		return "You can't discard the card you just picked up from the table"
	case errors.Is(err, rummy.ErrEmptyTable):
		return "Can't draw from empty table."
	case errors.Is(err, rummy.ErrStockExhausted):
		return "The stock is exhausted"
	case errors.Is(err, rummy.ErrHandMismatch):
		return "Client and server hands do not match!"
	case errors.Is(err, rummy.ErrInvalidMeld):
		return "Your hand is not a winning hand"
	case errors.Is(err, rummy.ErrNotEnded):
		return fmt.Sprintf("Party (%s) did not end yet.", roomID)
	case errors.Is(err, rummy.ErrRoomFull):
		return fmt.Sprintf("Room %s is full", roomID)
	case errors.Is(err, room.ErrRoomClosed):
		return fmt.Sprintf("Room %s is closed", roomID)
	default:
		return err.Error()
	}
}
