package deckstate

import "errors"

// Errors returned by Store. Protocol input itself never produces an error.
var (
	// ErrStoreStopped is returned when a command is submitted after Run has exited.
	ErrStoreStopped = errors.New("deckstate: store stopped")

	// ErrAlreadyRunning is returned when Run is called on a store that is
	// already running.
	ErrAlreadyRunning = errors.New("deckstate: store already running")
)
