// Package protocol defines the JSON wire contract between clients and
// the server: one envelope shape in both directions carrying named
// events, and the payload types of every event. Cards travel as their
// Unicode glyphs.
package protocol

import (
	"encoding/json"
	"fmt"

	"rummy-lite/card"
	"rummy-lite/rummy"
)

// Inbound intent events.
const (
	EventCreateRoom = "create_room"
	EventRooms      = "rooms"
	EventRoomState  = "room_state"
	EventJoin       = "join"
	EventKillRoom   = "kill_room"
	EventHand       = "hand"
	EventTable      = "table"
	EventWinnerHand = "winner_hand"
	EventStart      = "start"
	EventDraw       = "draw"
	EventShed       = "shed"
	EventShow       = "show"
)

// EventInfo carries human-readable notices and errors to one
// connection.
const EventInfo = "info"

// Envelope frames every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RoomRef is the payload of every intent that targets a room.
type RoomRef struct {
	RoomID string `json:"room_id"`
}

type DrawRequest struct {
	RoomID string `json:"room_id"`
	From   string `json:"from"`
}

type ShedRequest struct {
	RoomID string `json:"room_id"`
	Card   string `json:"card"`
}

type ShowRequest struct {
	RoomID string     `json:"room_id"`
	Melds  [][]string `json:"melds"`
}

type InfoPayload struct {
	Msg string `json:"msg"`
}

type RoomsPayload struct {
	Rooms []RoomStatePayload `json:"rooms"`
}

// RoomSnapshot is the wire form of a room: the full game state with
// players reduced to user identifiers and no task handle.
type RoomSnapshot struct {
	State      string     `json:"state"`
	TurnState  string     `json:"turn_state,omitempty"`
	Stock      []string   `json:"stock"`
	Table      []string   `json:"table"`
	Players    []string   `json:"players"`
	Turn       int        `json:"turn"`
	Leader     string     `json:"leader"`
	WinnerHand [][]string `json:"winner_hand,omitempty"`
	DrawnCard  string     `json:"drawn_card,omitempty"`
	DrawnFrom  string     `json:"drawn_from"`
}

type RoomStatePayload struct {
	State  RoomSnapshot `json:"state"`
	RoomID string       `json:"room_id"`
}

type HandPayload struct {
	Hand   []string `json:"hand"`
	RoomID string   `json:"room_id"`
}

type TablePayload struct {
	Table  []string `json:"table"`
	RoomID string   `json:"room_id"`
}

type WinnerHandPayload struct {
	Hand   [][]string `json:"hand"`
	RoomID string     `json:"room_id"`
}

// Encode frames an event and its payload. Payloads are plain data
// structs, so marshalling cannot fail at runtime.
func Encode(event string, payload any) []byte {
	raw, _ := json.Marshal(payload)
	data, _ := json.Marshal(Envelope{Event: event, Data: raw})
	return data
}

// Decode parses an inbound frame into its envelope.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("missing event name")
	}
	return env, nil
}

// CardsToWire converts cards to their wire glyphs.
func CardsToWire(cards []card.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

// MeldsToWire converts a meld grouping to wire glyphs.
func MeldsToWire(melds [][]card.Card) [][]string {
	if melds == nil {
		return nil
	}
	out := make([][]string, len(melds))
	for i, meld := range melds {
		out[i] = CardsToWire(meld)
	}
	return out
}

// ParseMelds converts a declared grouping of wire glyphs back into
// cards, rejecting anything outside the active deck.
func ParseMelds(melds [][]string) ([][]card.Card, error) {
	out := make([][]card.Card, len(melds))
	for i, meld := range melds {
		out[i] = make([]card.Card, len(meld))
		for j, glyph := range meld {
			c, err := card.Parse(glyph)
			if err != nil {
				return nil, err
			}
			out[i][j] = c
		}
	}
	return out, nil
}

// RoomStateFrom converts an engine snapshot to its wire form.
func RoomStateFrom(roomID string, s rummy.Snapshot) RoomStatePayload {
	snap := RoomSnapshot{
		State:      string(s.State),
		TurnState:  string(s.TurnState),
		Stock:      CardsToWire(s.Stock),
		Table:      CardsToWire(s.Table),
		Players:    s.Players,
		Turn:       s.Turn,
		Leader:     s.Leader,
		WinnerHand: MeldsToWire(s.WinnerHand),
		DrawnFrom:  string(s.DrawnFrom),
	}
	if s.DrawnCard.Valid() {
		snap.DrawnCard = s.DrawnCard.String()
	}
	return RoomStatePayload{State: snap, RoomID: roomID}
}
