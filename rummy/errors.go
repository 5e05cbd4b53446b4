package rummy

import "errors"

var (
	ErrNotJoined            = errors.New("not joined to this room")
	ErrAlreadyJoined        = errors.New("already joined to this room")
	ErrNotYourTurn          = errors.New("not your turn to play")
	ErrNotLeader            = errors.New("not the room leader")
	ErrInvalidPhase         = errors.New("not allowed in the current game phase")
	ErrCardNotInHand        = errors.New("card is not in hand")
	ErrIllegalPickupDiscard = errors.New("cannot shed the card just picked from the table")
	ErrEmptyTable           = errors.New("cannot draw from an empty table")
	ErrStockExhausted       = errors.New("stock empty with nothing to reshuffle")
	ErrHandMismatch         = errors.New("declared melds do not match the hand")
	ErrInvalidMeld          = errors.New("declared meld is neither a set nor a run")
	ErrAlreadyStarted       = errors.New("game already started")
	ErrNotEnded             = errors.New("game did not end yet")
	ErrRoomFull             = errors.New("not enough cards for another player")
)
