package rummy

import (
	"math/rand"
	"sync"
	"time"

	"rummy-lite/card"
)

// State is the top-level room lifecycle phase.
type State string

const (
	StatePause     State = "PAUSE"
	StateDeal      State = "DEAL"
	StateTurn      State = "TURN"
	StateEnd       State = "END"
	StateTerminate State = "TERMINATE"
)

// TurnState is the sub-phase within TURN governing the active player's
// required action.
type TurnState string

const (
	TurnDraw TurnState = "DRAW"
	TurnShed TurnState = "SHED"
	TurnShow TurnState = "SHOW"
)

// DrawSource names the pile a draw takes from.
type DrawSource string

const (
	DrawStock DrawSource = "STOCK"
	DrawTable DrawSource = "TABLE"
)

// HandSize is the number of cards dealt to every player.
const HandSize = 12

// Player is one seated player and their ordered hand.
type Player struct {
	User string
	Hand []card.Card
}

// Config controls engine construction.
type Config struct {
	// Seed fixes the shuffle rng. Zero picks a time-based seed.
	Seed int64
	// HandSize overrides the dealt hand size. Zero means HandSize.
	HandSize int
	// Deck, when non-nil, replaces the shuffled full deck as the
	// initial stock (deterministic deals for tests). Dealing pops
	// from the end.
	Deck []card.Card
}

// Game is the authoritative state machine of one room. All exported
// methods are safe for concurrent use; the room actor additionally
// serializes every mutating intent.
type Game struct {
	mu       sync.Mutex
	rng      *rand.Rand
	handSize int

	state     State
	turnState TurnState
	stock     []card.Card
	table     []card.Card
	players   []*Player
	turn      int
	leader    string

	drawnCard card.Card
	drawnFrom DrawSource

	dealt      int
	winnerHand [][]card.Card
}

// NewGame creates a game in PAUSE with a freshly shuffled full deck in
// the stock and no players.
func NewGame(cfg Config) *Game {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	handSize := cfg.HandSize
	if handSize <= 0 {
		handSize = HandSize
	}
	g := &Game{
		rng:       rand.New(rand.NewSource(seed)),
		handSize:  handSize,
		state:     StatePause,
		drawnFrom: DrawStock,
	}
	if cfg.Deck != nil {
		g.stock = append([]card.Card(nil), cfg.Deck...)
	} else {
		g.stock = card.Deck()
		g.shuffleLocked(g.stock)
	}
	return g
}

// Join seats a user. The first user to join becomes the room leader.
// Membership is frozen once dealing has begun.
func (g *Game) Join(user string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StatePause {
		return ErrAlreadyStarted
	}
	if g.playerLocked(user) != nil {
		return ErrAlreadyJoined
	}
	if (len(g.players)+1)*g.handSize > len(g.stock) {
		return ErrRoomFull
	}
	g.players = append(g.players, &Player{User: user})
	if len(g.players) == 1 {
		g.leader = user
	}
	return nil
}

// BeginDeal moves the game from PAUSE to DEAL. Dealing itself happens
// one card at a time through DealNext, paced by the caller.
func (g *Game) BeginDeal() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StatePause {
		return ErrAlreadyStarted
	}
	g.state = StateDeal
	return nil
}

// DealNext deals exactly one card to the next player in rotation and
// returns whose hand changed. Once every player holds a full hand the
// game advances to TURN with the first player to draw.
func (g *Game) DealNext() (user string, hand []card.Card, done bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateDeal {
		return "", nil, false, ErrInvalidPhase
	}
	p := g.players[g.dealt%len(g.players)]
	p.Hand = append(p.Hand, g.popStockLocked())
	g.dealt++

	if g.dealt == g.handSize*len(g.players) {
		g.state = StateTurn
		g.turnState = TurnDraw
		g.turn = 0
		done = true
	}
	return p.User, append([]card.Card(nil), p.Hand...), done, nil
}

// Draw gives the active player the top card of the chosen pile and
// advances the turn sub-state to SHED. An exhausted stock is replenished
// by reshuffling the table minus its top card; reshuffled reports when
// that happened so the caller can announce it.
func (g *Game) Draw(user string, from DrawSource) (hand, table []card.Card, reshuffled bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireActiveLocked(user); err != nil {
		return nil, nil, false, err
	}
	if g.state != StateTurn || g.turnState != TurnDraw {
		return nil, nil, false, ErrInvalidPhase
	}

	var c card.Card
	if from == DrawTable {
		if len(g.table) == 0 {
			return nil, nil, false, ErrEmptyTable
		}
		c = g.table[len(g.table)-1]
		g.table = g.table[:len(g.table)-1]
		g.drawnFrom = DrawTable
	} else {
		if len(g.stock) == 0 {
			if len(g.table) < 2 {
				return nil, nil, false, ErrStockExhausted
			}
			top := g.table[len(g.table)-1]
			g.stock = append(g.stock, g.table[:len(g.table)-1]...)
			g.table = []card.Card{top}
			g.shuffleLocked(g.stock)
			reshuffled = true
		}
		c = g.popStockLocked()
		g.drawnFrom = DrawStock
	}

	g.drawnCard = c
	g.turnState = TurnShed
	p := g.players[g.turn]
	p.Hand = append(p.Hand, c)

	return append([]card.Card(nil), p.Hand...), append([]card.Card(nil), g.table...), reshuffled, nil
}

// Shed discards one card from the active player's hand onto the table
// and passes the turn. The exact card just picked up from the table may
// not be bounced straight back.
func (g *Game) Shed(user string, c card.Card) (hand, table []card.Card, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireActiveLocked(user); err != nil {
		return nil, nil, err
	}
	if g.state != StateTurn || g.turnState != TurnShed {
		return nil, nil, ErrInvalidPhase
	}
	if c == g.drawnCard && g.drawnFrom == DrawTable {
		return nil, nil, ErrIllegalPickupDiscard
	}

	p := g.players[g.turn]
	idx := -1
	for i, held := range p.Hand {
		if held == c {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, ErrCardNotInHand
	}
	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	g.table = append(g.table, c)

	g.turn = (g.turn + 1) % len(g.players)
	g.turnState = TurnDraw
	g.state = StateTurn

	return append([]card.Card(nil), p.Hand...), append([]card.Card(nil), g.table...), nil
}

// Show validates a declared winning partition of the active player's
// hand. It is accepted anywhere within TURN, regardless of the turn
// sub-state. On success the game ends and the melds are recorded
// verbatim as the winner hand.
func (g *Game) Show(user string, melds [][]card.Card) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireActiveLocked(user); err != nil {
		return err
	}
	if g.state != StateTurn {
		return ErrInvalidPhase
	}
	if err := ValidateShow(g.players[g.turn].Hand, melds); err != nil {
		return err
	}

	g.winnerHand = make([][]card.Card, len(melds))
	for i, meld := range melds {
		g.winnerHand[i] = append([]card.Card(nil), meld...)
	}
	g.state = StateEnd
	return nil
}

// Kill forces TERMINATE unless the game already reached a terminal
// state.
func (g *Game) Kill() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateEnd || g.state == StateTerminate {
		return
	}
	g.state = StateTerminate
}

// State returns the current lifecycle phase.
func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Leader returns the user id of the room creator.
func (g *Game) Leader() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.leader
}

// Current returns the user whose turn it is, or "" with no players.
func (g *Game) Current() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.players) == 0 {
		return ""
	}
	return g.players[g.turn].User
}

// Joined reports whether user holds a seat.
func (g *Game) Joined(user string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playerLocked(user) != nil
}

// Players returns the seated user ids in turn order.
func (g *Game) Players() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playerNamesLocked()
}

// HandOf returns a copy of user's hand.
func (g *Game) HandOf(user string) ([]card.Card, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.playerLocked(user)
	if p == nil {
		return nil, ErrNotJoined
	}
	return append([]card.Card(nil), p.Hand...), nil
}

// TableCards returns a copy of the discard pile, most recent last.
func (g *Game) TableCards() []card.Card {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]card.Card(nil), g.table...)
}

// WinnerHand returns the declared winning melds once the game ended.
func (g *Game) WinnerHand() ([][]card.Card, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateEnd {
		return nil, ErrNotEnded
	}
	out := make([][]card.Card, len(g.winnerHand))
	for i, meld := range g.winnerHand {
		out[i] = append([]card.Card(nil), meld...)
	}
	return out, nil
}

func (g *Game) requireActiveLocked(user string) error {
	if len(g.players) == 0 || g.players[g.turn].User != user {
		return ErrNotYourTurn
	}
	return nil
}

func (g *Game) playerLocked(user string) *Player {
	for _, p := range g.players {
		if p.User == user {
			return p
		}
	}
	return nil
}

func (g *Game) playerNamesLocked() []string {
	names := make([]string, len(g.players))
	for i, p := range g.players {
		names[i] = p.User
	}
	return names
}

func (g *Game) popStockLocked() card.Card {
	c := g.stock[len(g.stock)-1]
	g.stock = g.stock[:len(g.stock)-1]
	return c
}

func (g *Game) shuffleLocked(cards []card.Card) {
	g.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}
