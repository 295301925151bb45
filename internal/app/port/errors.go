package port

import "errors"

// Outcomes a GameAPI implementation reports for specific endpoint responses.
var (
	// ErrUnavailable means the request never produced a usable response.
	ErrUnavailable = errors.New("game api unavailable")
	// ErrLoginRejected means the login endpoint did not issue a token.
	ErrLoginRejected = errors.New("login rejected")
	// ErrNotEnoughFunds means the wallet cannot pay for further battles.
	ErrNotEnoughFunds = errors.New("not enough u-RACA to battle")
	// ErrCannotFight means the battle response carried no result for the monster.
	ErrCannotFight = errors.New("metamon cannot fight")
)
