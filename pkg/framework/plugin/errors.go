package plugin

import "errors"

var (
	// ErrSequenceViolation reports a lifecycle call made outside its legal
	// window. The operation has no observable side effect; the host can
	// recover by retrying in the correct order.
	ErrSequenceViolation = errors.New("lifecycle sequence violation")

	// ErrInternal reports an edit against a component whose control-thread
	// state does not exist yet.
	ErrInternal = errors.New("internal component error")

	// ErrInvalidBlock reports a process call whose buffer shape breaks the
	// configured environment: negative frame count, more frames than the
	// configured maximum, or missing channels.
	ErrInvalidBlock = errors.New("invalid process block")
)
