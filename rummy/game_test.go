package rummy

import (
	"errors"
	"testing"

	"rummy-lite/card"
)

func dealOut(t *testing.T, g *Game) {
	t.Helper()
	if err := g.BeginDeal(); err != nil {
		t.Fatalf("BeginDeal: %v", err)
	}
	for {
		_, _, done, err := g.DealNext()
		if err != nil {
			t.Fatalf("DealNext: %v", err)
		}
		if done {
			return
		}
	}
}

func TestJoin(t *testing.T) {
	g := NewGame(Config{Seed: 1})

	if err := g.Join("alice"); err != nil {
		t.Fatalf("Join alice: %v", err)
	}
	if g.Leader() != "alice" {
		t.Fatalf("leader = %q, want alice", g.Leader())
	}
	if err := g.Join("alice"); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("rejoin: err = %v, want ErrAlreadyJoined", err)
	}
	for _, user := range []string{"bob", "carol", "dave"} {
		if err := g.Join(user); err != nil {
			t.Fatalf("Join %s: %v", user, err)
		}
	}
	// A fifth hand of 12 does not fit in a 52-card deck.
	if err := g.Join("erin"); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("fifth join: err = %v, want ErrRoomFull", err)
	}

	if err := g.BeginDeal(); err != nil {
		t.Fatalf("BeginDeal: %v", err)
	}
	if err := g.Join("erin"); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("join after start: err = %v, want ErrAlreadyStarted", err)
	}
}

func TestDealingPartitionsDeck(t *testing.T) {
	g := NewGame(Config{Seed: 7})
	for _, user := range []string{"alice", "bob"} {
		if err := g.Join(user); err != nil {
			t.Fatal(err)
		}
	}
	dealOut(t, g)

	snap := g.Snapshot()
	if snap.State != StateTurn || snap.TurnState != TurnDraw {
		t.Fatalf("after dealing: state = %s/%s, want TURN/DRAW", snap.State, snap.TurnState)
	}
	if snap.Turn != 0 {
		t.Fatalf("after dealing: turn = %d, want 0", snap.Turn)
	}

	seen := make(map[card.Card]bool, card.DeckSize)
	count := func(cards []card.Card) {
		for _, c := range cards {
			if seen[c] {
				t.Fatalf("card %s appears twice", c)
			}
			seen[c] = true
		}
	}
	count(snap.Stock)
	count(snap.Table)
	for _, user := range snap.Players {
		hand, err := g.HandOf(user)
		if err != nil {
			t.Fatal(err)
		}
		if len(hand) != HandSize {
			t.Fatalf("%s hand size = %d, want %d", user, len(hand), HandSize)
		}
		count(hand)
	}
	if len(seen) != card.DeckSize {
		t.Fatalf("deck partition covers %d cards, want %d", len(seen), card.DeckSize)
	}
}

func TestDealingRotatesPlayers(t *testing.T) {
	g := NewGame(Config{Seed: 7})
	for _, user := range []string{"alice", "bob"} {
		if err := g.Join(user); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.BeginDeal(); err != nil {
		t.Fatal(err)
	}
	want := []string{"alice", "bob"}
	for i := 0; i < 2*HandSize; i++ {
		user, hand, _, err := g.DealNext()
		if err != nil {
			t.Fatalf("DealNext %d: %v", i, err)
		}
		if user != want[i%2] {
			t.Fatalf("deal %d went to %s, want %s", i, user, want[i%2])
		}
		if len(hand) != i/2+1 {
			t.Fatalf("deal %d: hand size = %d, want %d", i, len(hand), i/2+1)
		}
	}
	if _, _, _, err := g.DealNext(); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("DealNext after dealing: err = %v, want ErrInvalidPhase", err)
	}
}

func TestDrawShedTurnCycle(t *testing.T) {
	g := NewGame(Config{Seed: 11})
	for _, user := range []string{"alice", "bob"} {
		if err := g.Join(user); err != nil {
			t.Fatal(err)
		}
	}
	dealOut(t, g)

	if _, _, _, err := g.Draw("bob", DrawStock); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("bob draw out of turn: err = %v, want ErrNotYourTurn", err)
	}
	if _, _, _, err := g.Draw("alice", DrawTable); !errors.Is(err, ErrEmptyTable) {
		t.Fatalf("draw from empty table: err = %v, want ErrEmptyTable", err)
	}

	hand, _, reshuffled, err := g.Draw("alice", DrawStock)
	if err != nil {
		t.Fatalf("alice draw: %v", err)
	}
	if reshuffled {
		t.Fatal("unexpected reshuffle on first draw")
	}
	if len(hand) != HandSize+1 {
		t.Fatalf("hand after draw = %d cards, want %d", len(hand), HandSize+1)
	}
	if _, _, _, err := g.Draw("alice", DrawStock); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("second draw: err = %v, want ErrInvalidPhase", err)
	}

	// A card alice does not hold.
	foreign, err := g.HandOf("bob")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := g.Shed("alice", foreign[0]); !errors.Is(err, ErrCardNotInHand) {
		t.Fatalf("shed foreign card: err = %v, want ErrCardNotInHand", err)
	}

	discard := hand[0]
	if _, table, err := g.Shed("alice", discard); err != nil {
		t.Fatalf("alice shed: %v", err)
	} else if len(table) != 1 || table[0] != discard {
		t.Fatalf("table after shed = %v, want [%s]", table, discard)
	}
	if cur := g.Current(); cur != "bob" {
		t.Fatalf("turn after shed = %s, want bob", cur)
	}

	// Bob picks up alice's discard; bouncing it straight back is
	// rejected, any other card is fine.
	if _, _, _, err := g.Draw("bob", DrawTable); err != nil {
		t.Fatalf("bob draw from table: %v", err)
	}
	if _, _, err := g.Shed("bob", discard); !errors.Is(err, ErrIllegalPickupDiscard) {
		t.Fatalf("shed picked-up card: err = %v, want ErrIllegalPickupDiscard", err)
	}
	bobHand, err := g.HandOf("bob")
	if err != nil {
		t.Fatal(err)
	}
	other := bobHand[0]
	if other == discard {
		other = bobHand[1]
	}
	if _, _, err := g.Shed("bob", other); err != nil {
		t.Fatalf("bob shed: %v", err)
	}
	if cur := g.Current(); cur != "alice" {
		t.Fatalf("turn wrapped to %s, want alice", cur)
	}

	snap := g.Snapshot()
	if snap.Turn < 0 || snap.Turn >= len(snap.Players) {
		t.Fatalf("turn index %d out of range", snap.Turn)
	}
}

func TestReshuffleOnEmptyStock(t *testing.T) {
	deck := []card.Card{
		mk(t, 1, card.Spade), mk(t, 2, card.Spade), mk(t, 3, card.Spade), mk(t, 4, card.Spade),
	}
	g := NewGame(Config{Seed: 3, HandSize: 1, Deck: deck})
	if err := g.Join("alice"); err != nil {
		t.Fatal(err)
	}
	dealOut(t, g)

	// Single player: draw from stock and shed until the stock is gone.
	for i := 0; i < 3; i++ {
		hand, _, reshuffled, err := g.Draw("alice", DrawStock)
		if err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		if reshuffled {
			t.Fatalf("draw %d: premature reshuffle", i)
		}
		if _, _, err := g.Shed("alice", hand[len(hand)-1]); err != nil {
			t.Fatalf("shed %d: %v", i, err)
		}
	}

	snap := g.Snapshot()
	if len(snap.Stock) != 0 || len(snap.Table) != 3 {
		t.Fatalf("before reshuffle: stock=%d table=%d, want 0/3", len(snap.Stock), len(snap.Table))
	}
	top := snap.Table[len(snap.Table)-1]

	_, table, reshuffled, err := g.Draw("alice", DrawStock)
	if err != nil {
		t.Fatalf("draw on empty stock: %v", err)
	}
	if !reshuffled {
		t.Fatal("expected a reshuffle")
	}
	if len(table) != 1 || table[0] != top {
		t.Fatalf("table after reshuffle = %v, want only the top card %s", table, top)
	}
	snap = g.Snapshot()
	if len(snap.Stock) != 1 {
		t.Fatalf("stock after reshuffle draw = %d, want 1", len(snap.Stock))
	}
}

func TestStockDrawRejectedWithNothingToReshuffle(t *testing.T) {
	deck := []card.Card{mk(t, 1, card.Heart), mk(t, 2, card.Heart)}
	g := NewGame(Config{Seed: 3, HandSize: 1, Deck: deck})
	if err := g.Join("alice"); err != nil {
		t.Fatal(err)
	}
	dealOut(t, g)

	hand, _, _, err := g.Draw("alice", DrawStock)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := g.Shed("alice", hand[0]); err != nil {
		t.Fatal(err)
	}

	// Stock empty, table holds a single card: no legal reshuffle.
	if _, _, _, err := g.Draw("alice", DrawStock); !errors.Is(err, ErrStockExhausted) {
		t.Fatalf("err = %v, want ErrStockExhausted", err)
	}
}

func TestShowWinsGame(t *testing.T) {
	deck := run(t, card.Spade, 10, 11, 13)
	g := NewGame(Config{Seed: 5, HandSize: 3, Deck: deck})
	if err := g.Join("alice"); err != nil {
		t.Fatal(err)
	}

	if _, err := g.WinnerHand(); !errors.Is(err, ErrNotEnded) {
		t.Fatalf("WinnerHand before end: err = %v, want ErrNotEnded", err)
	}
	if err := g.Show("alice", nil); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("show before TURN: err = %v, want ErrInvalidPhase", err)
	}
	dealOut(t, g)

	hand, err := g.HandOf("alice")
	if err != nil {
		t.Fatal(err)
	}
	partial := [][]card.Card{hand[:2]}
	if err := g.Show("alice", partial); !errors.Is(err, ErrHandMismatch) {
		t.Fatalf("partial show: err = %v, want ErrHandMismatch", err)
	}

	if err := g.Show("alice", [][]card.Card{hand}); err != nil {
		t.Fatalf("show: %v", err)
	}
	if g.State() != StateEnd {
		t.Fatalf("state after show = %s, want END", g.State())
	}
	winner, err := g.WinnerHand()
	if err != nil {
		t.Fatal(err)
	}
	if len(winner) != 1 || len(winner[0]) != 3 {
		t.Fatalf("winner hand = %v, want the declared run", winner)
	}
	if _, _, _, err := g.Draw("alice", DrawStock); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("draw after end: err = %v, want ErrInvalidPhase", err)
	}
}

func TestShowRejectsNonWinningGrouping(t *testing.T) {
	deck := run(t, card.Spade, 1, 2, 4)
	g := NewGame(Config{Seed: 5, HandSize: 3, Deck: deck})
	if err := g.Join("alice"); err != nil {
		t.Fatal(err)
	}
	dealOut(t, g)

	hand, err := g.HandOf("alice")
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Show("alice", [][]card.Card{hand}); !errors.Is(err, ErrInvalidMeld) {
		t.Fatalf("err = %v, want ErrInvalidMeld", err)
	}
	if g.State() != StateTurn {
		t.Fatalf("state after rejected show = %s, want TURN", g.State())
	}
}

// A declaration is accepted mid-turn as well, after the draw.
func TestShowDuringShedSubState(t *testing.T) {
	deck := append([]card.Card{mk(t, 4, card.Heart)}, run(t, card.Heart, 5, 6, 7)...)
	g := NewGame(Config{Seed: 5, HandSize: 3, Deck: deck})
	if err := g.Join("alice"); err != nil {
		t.Fatal(err)
	}
	dealOut(t, g)

	hand, _, _, err := g.Draw("alice", DrawStock)
	if err != nil {
		t.Fatal(err)
	}
	if len(hand) != 4 {
		t.Fatalf("hand = %d cards, want 4", len(hand))
	}
	if err := g.Show("alice", [][]card.Card{hand}); err != nil {
		t.Fatalf("show during SHED: %v", err)
	}
	if g.State() != StateEnd {
		t.Fatalf("state = %s, want END", g.State())
	}
}

func TestKill(t *testing.T) {
	g := NewGame(Config{Seed: 9})
	if err := g.Join("alice"); err != nil {
		t.Fatal(err)
	}
	g.Kill()
	if g.State() != StateTerminate {
		t.Fatalf("state = %s, want TERMINATE", g.State())
	}

	// Terminal states stay put.
	won := NewGame(Config{Seed: 5, HandSize: 3, Deck: run(t, card.Club, 7, 8, 9)})
	if err := won.Join("bob"); err != nil {
		t.Fatal(err)
	}
	dealOut(t, won)
	hand, err := won.HandOf("bob")
	if err != nil {
		t.Fatal(err)
	}
	if err := won.Show("bob", [][]card.Card{hand}); err != nil {
		t.Fatal(err)
	}
	won.Kill()
	if won.State() != StateEnd {
		t.Fatalf("state after kill on END = %s, want END", won.State())
	}
}
