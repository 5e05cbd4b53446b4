package room

import "rummy-lite/rummy"

// A guard is one precondition of an intent. Guards run inside the room
// actor, so a guard and the engine operation behind it can never
// interleave with another intent for the same room.
type guard func(g *rummy.Game, user string) error

func requireJoined(g *rummy.Game, user string) error {
	if !g.Joined(user) {
		return rummy.ErrNotJoined
	}
	return nil
}

func requireNotJoined(g *rummy.Game, user string) error {
	if g.Joined(user) {
		return rummy.ErrAlreadyJoined
	}
	return nil
}

func requireLeader(g *rummy.Game, user string) error {
	if g.Leader() != user {
		return rummy.ErrNotLeader
	}
	return nil
}

func requireTurn(g *rummy.Game, user string) error {
	if g.Current() != user {
		return rummy.ErrNotYourTurn
	}
	return nil
}

// check runs guards in order and stops at the first violation.
func check(g *rummy.Game, user string, guards ...guard) error {
	for _, gd := range guards {
		if err := gd(g, user); err != nil {
			return err
		}
	}
	return nil
}
