package rummy

import "rummy-lite/card"

// Snapshot is a read-only copy of room-visible game state. Players are
// reduced to their user identifiers, in turn order.
type Snapshot struct {
	State      State
	TurnState  TurnState
	Stock      []card.Card
	Table      []card.Card
	Players    []string
	Turn       int
	Leader     string
	WinnerHand [][]card.Card
	DrawnCard  card.Card
	DrawnFrom  DrawSource
}

func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Snapshot{
		State:     g.state,
		TurnState: g.turnState,
		Stock:     append([]card.Card(nil), g.stock...),
		Table:     append([]card.Card(nil), g.table...),
		Players:   g.playerNamesLocked(),
		Turn:      g.turn,
		Leader:    g.leader,
		DrawnCard: g.drawnCard,
		DrawnFrom: g.drawnFrom,
	}
	if g.winnerHand != nil {
		s.WinnerHand = make([][]card.Card, len(g.winnerHand))
		for i, meld := range g.winnerHand {
			s.WinnerHand[i] = append([]card.Card(nil), meld...)
		}
	}
	return s
}
