package rummy

import (
	"sort"

	"rummy-lite/card"
)

const minMeldSize = 3

// IsSet reports whether meld is 3 or more cards sharing one rank.
func IsSet(meld []card.Card) bool {
	if len(meld) < minMeldSize {
		return false
	}
	rank := meld[0].Rank()
	for _, c := range meld[1:] {
		if c.Rank() != rank {
			return false
		}
	}
	return true
}

// IsRun reports whether meld is 3 or more same-suit cards of
// consecutive rank. One deliberate table rule: a run topped by rank 13
// may skip a single rank on its final step (10-11-13 is a run). The
// skip is legal nowhere else.
func IsRun(meld []card.Card) bool {
	if len(meld) < minMeldSize {
		return false
	}
	suit := meld[0].Suit()
	ranks := make([]int, len(meld))
	for i, c := range meld {
		if c.Suit() != suit {
			return false
		}
		ranks[i] = c.Rank()
	}
	sort.Ints(ranks)

	for i := 1; i < len(ranks); i++ {
		step := ranks[i] - ranks[i-1]
		if step == 1 {
			continue
		}
		if step == 2 && i == len(ranks)-1 && ranks[i] == card.MaxRank {
			continue
		}
		return false
	}
	return true
}

// ValidateShow decides whether melds form a legal winning declaration
// for hand. The rank multiset across all melds must equal the rank
// multiset of the hand (defends against declaring cards the player does
// not hold), and every meld must independently be a set or a run.
func ValidateShow(hand []card.Card, melds [][]card.Card) error {
	declared := make([]int, 0, len(hand))
	for _, meld := range melds {
		for _, c := range meld {
			declared = append(declared, c.Rank())
		}
	}
	held := make([]int, 0, len(hand))
	for _, c := range hand {
		held = append(held, c.Rank())
	}
	if len(declared) != len(held) {
		return ErrHandMismatch
	}
	sort.Ints(declared)
	sort.Ints(held)
	for i := range held {
		if declared[i] != held[i] {
			return ErrHandMismatch
		}
	}

	for _, meld := range melds {
		if !IsSet(meld) && !IsRun(meld) {
			return ErrInvalidMeld
		}
	}
	return nil
}
