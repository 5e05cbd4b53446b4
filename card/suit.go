package card

type Suit int

const (
	Spade Suit = iota // ♠
	Heart             // ♥
	Diamond           // ♦
	Club              // ♣
)

func (s Suit) String() string {
	switch s {
	case Spade:
		return "♠"
	case Heart:
		return "♥"
	case Diamond:
		return "♦"
	case Club:
		return "♣"
	}
	return "?"
}

// Suits lists every suit in encoding order.
func Suits() []Suit {
	return []Suit{Spade, Heart, Diamond, Club}
}
