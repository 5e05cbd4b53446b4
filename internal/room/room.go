package room

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"rummy-lite/card"
	"rummy-lite/internal/protocol"
	"rummy-lite/rummy"
)

// ErrRoomClosed is returned for intents submitted after the room's
// background task has stopped.
var ErrRoomClosed = errors.New("room closed")

const defaultTickInterval = time.Second

// SendFunc delivers an encoded frame to a single user. Implementations
// must not block.
type SendFunc func(user string, data []byte)

type intentKind int

const (
	intentJoin intentKind = iota
	intentStart
	intentKill
	intentDraw
	intentShed
	intentShow
)

type intent struct {
	kind  intentKind
	user  string
	from  rummy.DrawSource
	card  card.Card
	melds [][]card.Card
	resp  chan error
}

// Room wraps one game behind a single goroutine. All intents funnel
// through the intents channel, so game mutations for one room never
// run concurrently. The same goroutine drives the periodic tick that
// broadcasts state, deals cards and prompts the active player.
type Room struct {
	ID string

	game      *rummy.Game
	send      SendFunc
	tickEvery time.Duration

	mu      sync.RWMutex
	started bool
	closed  bool

	intents  chan intent
	done     chan struct{}
	stopOnce sync.Once
}

func newRoom(id string, g *rummy.Game, send SendFunc, tickEvery time.Duration) *Room {
	if tickEvery <= 0 {
		tickEvery = defaultTickInterval
	}
	r := &Room{
		ID:        id,
		game:      g,
		send:      send,
		tickEvery: tickEvery,
		intents:   make(chan intent, 64),
		done:      make(chan struct{}),
	}
	go r.run()
	return r
}

// Join adds a user to the room while it is still gathering players.
func (r *Room) Join(user string) error {
	return r.submit(intent{kind: intentJoin, user: user})
}

// Start begins dealing. Only the leader may start, and only once.
func (r *Room) Start(user string) error {
	return r.submit(intent{kind: intentStart, user: user})
}

// Kill terminates the room. Only the leader may kill it.
func (r *Room) Kill(user string) error {
	return r.submit(intent{kind: intentKill, user: user})
}

// Draw takes a card from the stock or the table for the active player.
func (r *Room) Draw(user string, from rummy.DrawSource) error {
	return r.submit(intent{kind: intentDraw, user: user, from: from})
}

// Shed discards a card and passes the turn.
func (r *Room) Shed(user string, c card.Card) error {
	return r.submit(intent{kind: intentShed, user: user, card: c})
}

// Show claims the win with the given meld grouping.
func (r *Room) Show(user string, melds [][]card.Card) error {
	return r.submit(intent{kind: intentShow, user: user, melds: melds})
}

func (r *Room) submit(it intent) error {
	it.resp = make(chan error, 1)
	select {
	case r.intents <- it:
	case <-r.done:
		return ErrRoomClosed
	}
	select {
	case err := <-it.resp:
		return err
	case <-r.done:
		// The actor may still answer a queued intent while shutting
		// down; prefer that answer if it already arrived.
		select {
		case err := <-it.resp:
			return err
		default:
			return ErrRoomClosed
		}
	}
}

func (r *Room) run() {
	ticker := time.NewTicker(r.tickEvery)
	defer ticker.Stop()
	for {
		select {
		case it := <-r.intents:
			it.resp <- r.handleIntent(it)
		case <-ticker.C:
			r.tick()
		case <-r.done:
			return
		}
	}
}

func (r *Room) handleIntent(it intent) error {
	if r.IsClosed() {
		return ErrRoomClosed
	}
	switch it.kind {
	case intentJoin:
		return r.handleJoin(it.user)
	case intentStart:
		return r.handleStart(it.user)
	case intentKill:
		return r.handleKill(it.user)
	case intentDraw:
		return r.handleDraw(it.user, it.from)
	case intentShed:
		return r.handleShed(it.user, it.card)
	case intentShow:
		return r.handleShow(it.user, it.melds)
	default:
		return fmt.Errorf("unknown intent %d", it.kind)
	}
}

func (r *Room) handleJoin(user string) error {
	if r.Started() {
		return rummy.ErrAlreadyStarted
	}
	if err := check(r.game, user, requireNotJoined); err != nil {
		return err
	}
	if err := r.game.Join(user); err != nil {
		return err
	}
	r.broadcastInfo(fmt.Sprintf("%s joined %s", user, r.ID))
	r.broadcastRoomState()
	return nil
}

func (r *Room) handleStart(user string) error {
	if err := check(r.game, user, requireJoined, requireLeader); err != nil {
		return err
	}
	if r.Started() {
		return rummy.ErrAlreadyStarted
	}
	if err := r.game.BeginDeal(); err != nil {
		return err
	}
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
	r.broadcastInfo(fmt.Sprintf("Party started (%s)", r.ID))
	return nil
}

func (r *Room) handleKill(user string) error {
	if err := check(r.game, user, requireJoined, requireLeader); err != nil {
		return err
	}
	r.game.Kill()
	r.broadcastInfo(fmt.Sprintf("Party killed (%s)", r.ID))
	if !r.Started() {
		// Nothing left for the tick to announce; stop now.
		r.stop()
	}
	return nil
}

func (r *Room) handleDraw(user string, from rummy.DrawSource) error {
	if err := check(r.game, user, requireJoined, requireTurn); err != nil {
		return err
	}
	hand, table, reshuffled, err := r.game.Draw(user, from)
	if err != nil {
		return err
	}
	if reshuffled {
		r.broadcastInfo("Reshuffled the table back into the stock.")
	}
	r.sendHand(user, hand)
	r.broadcastTable(table)
	return nil
}

func (r *Room) handleShed(user string, c card.Card) error {
	if err := check(r.game, user, requireJoined, requireTurn); err != nil {
		return err
	}
	hand, table, err := r.game.Shed(user, c)
	if err != nil {
		return err
	}
	r.sendHand(user, hand)
	r.broadcastTable(table)
	return nil
}

func (r *Room) handleShow(user string, melds [][]card.Card) error {
	if err := check(r.game, user, requireJoined, requireTurn); err != nil {
		return err
	}
	// The end of the game is announced by the next tick.
	return r.game.Show(user, melds)
}

func (r *Room) tick() {
	if !r.Started() || r.IsClosed() {
		return
	}
	r.broadcastRoomState()
	switch r.game.State() {
	case rummy.StateDeal:
		user, hand, _, err := r.game.DealNext()
		if err != nil {
			log.Printf("[Room %s] deal: %v", r.ID, err)
			return
		}
		r.sendHand(user, hand)
	case rummy.StateTurn:
		active := r.game.Current()
		for _, user := range r.game.Players() {
			if user == active {
				r.sendInfo(user, fmt.Sprintf("It is your turn to play! %s (%s)", user, r.ID))
			} else {
				r.sendInfo(user, fmt.Sprintf("It is %s's turn to play (%s)", active, r.ID))
			}
		}
	case rummy.StateEnd:
		winner, err := r.game.WinnerHand()
		if err != nil {
			log.Printf("[Room %s] winner hand: %v", r.ID, err)
			r.stop()
			return
		}
		r.broadcastInfo(fmt.Sprintf("The game ended (Winner: %s) (%s)", r.game.Current(), r.ID))
		r.broadcastWinnerHand(winner)
		r.stop()
	case rummy.StateTerminate:
		r.stop()
	}
}

// Snapshot returns the current public view of the game.
func (r *Room) Snapshot() rummy.Snapshot {
	return r.game.Snapshot()
}

// HandFor returns user's hand. Only joined players may ask.
func (r *Room) HandFor(user string) ([]card.Card, error) {
	if err := check(r.game, user, requireJoined); err != nil {
		return nil, err
	}
	return r.game.HandOf(user)
}

// TableFor returns the discard pile. Only joined players may ask.
func (r *Room) TableFor(user string) ([]card.Card, error) {
	if err := check(r.game, user, requireJoined); err != nil {
		return nil, err
	}
	return r.game.TableCards(), nil
}

// WinnerHandFor returns the winning grouping after the game ended.
func (r *Room) WinnerHandFor(user string) ([][]card.Card, error) {
	if err := check(r.game, user, requireJoined); err != nil {
		return nil, err
	}
	return r.game.WinnerHand()
}

func (r *Room) Started() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.started
}

func (r *Room) IsClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

func (r *Room) stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		close(r.done)
		log.Printf("[Room %s] closed", r.ID)
	})
}

func (r *Room) sendTo(user string, data []byte) {
	r.send(user, data)
}

func (r *Room) sendInfo(user, msg string) {
	r.sendTo(user, protocol.Encode(protocol.EventInfo, protocol.InfoPayload{Msg: msg}))
}

func (r *Room) broadcast(data []byte) {
	for _, user := range r.game.Players() {
		r.sendTo(user, data)
	}
}

func (r *Room) broadcastInfo(msg string) {
	r.broadcast(protocol.Encode(protocol.EventInfo, protocol.InfoPayload{Msg: msg}))
}

func (r *Room) broadcastRoomState() {
	r.broadcast(protocol.Encode(protocol.EventRoomState, protocol.RoomStateFrom(r.ID, r.game.Snapshot())))
}

func (r *Room) sendHand(user string, hand []card.Card) {
	r.sendTo(user, protocol.Encode(protocol.EventHand, protocol.HandPayload{
		Hand:   protocol.CardsToWire(hand),
		RoomID: r.ID,
	}))
}

func (r *Room) broadcastTable(table []card.Card) {
	r.broadcast(protocol.Encode(protocol.EventTable, protocol.TablePayload{
		Table:  protocol.CardsToWire(table),
		RoomID: r.ID,
	}))
}

func (r *Room) broadcastWinnerHand(melds [][]card.Card) {
	r.broadcast(protocol.Encode(protocol.EventWinnerHand, protocol.WinnerHandPayload{
		Hand:   protocol.MeldsToWire(melds),
		RoomID: r.ID,
	}))
}
