package card

// DeckSize is the number of active cards: 13 ranks across 4 suits, the
// reserved knight code of each suit excluded.
const DeckSize = 52

// Deck returns the full active deck in suit-then-rank order.
func Deck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, suit := range Suits() {
		for rank := MinRank; rank <= MaxRank; rank++ {
			c, err := Make(rank, suit)
			if err != nil {
				panic(err) // unreachable for in-range rank/suit
			}
			deck = append(deck, c)
		}
	}
	return deck
}
