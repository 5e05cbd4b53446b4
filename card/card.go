package card

import (
	"fmt"
	"unicode/utf8"
)

// Card is one playing card, stored as the Unicode playing-card code
// point of its face (U+1F0A1..U+1F0DE). Clients and server exchange the
// glyph itself, so the wire value and the in-memory value coincide.
//
// Encoding:
// - bits 4..7: suit block (0xA:♠ 0xB:♥ 0xC:♦ 0xD:♣)
// - bits 0..3: face code 1..14, where code 12 (the knight, a legacy
//   symbol) is reserved per suit and never part of the active deck
//
// Decoded ranks are dense 1..13: face codes 13 and 14 shift down by one
// to fill the hole left by the reserved knight.
type Card rune

const (
	MinRank = 1
	MaxRank = 13

	blockBase   = 0x1F0A0
	knightCode  = 12
	maxFaceCode = 14
)

// Valid reports whether c is one of the 52 active deck cards.
func (c Card) Valid() bool {
	block := (rune(c) >> 4) - (blockBase >> 4)
	if block < 0 || block >= rune(len(Suits())) {
		return false
	}
	face := rune(c) & 0xF
	return face >= 1 && face <= maxFaceCode && face != knightCode
}

// Rank returns the card's rank 1..13, or 0 for an invalid card.
func (c Card) Rank() int {
	if !c.Valid() {
		return 0
	}
	face := int(rune(c) & 0xF)
	if face > knightCode {
		return face - 1
	}
	return face
}

// Suit returns the card's suit. Only meaningful when c.Valid().
func (c Card) Suit() Suit {
	return Suit((rune(c) >> 4) - (blockBase >> 4))
}

// String returns the card's glyph, the same form used on the wire.
func (c Card) String() string {
	if !c.Valid() {
		return "?"
	}
	return string(rune(c))
}

// Make encodes a (rank, suit) pair into the corresponding deck card.
func Make(rank int, suit Suit) (Card, error) {
	if rank < MinRank || rank > MaxRank {
		return 0, fmt.Errorf("invalid rank %d", rank)
	}
	if suit < Spade || suit > Club {
		return 0, fmt.Errorf("invalid suit %d", int(suit))
	}
	face := rune(rank)
	if rank >= knightCode {
		face++ // skip the reserved knight code
	}
	return Card(blockBase + rune(suit)<<4 + face), nil
}

// Parse converts a wire glyph back into a Card.
func Parse(s string) (Card, error) {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("not a card glyph: %q", s)
	}
	c := Card(r)
	if !c.Valid() {
		return 0, fmt.Errorf("not an active deck card: %q", s)
	}
	return c, nil
}
