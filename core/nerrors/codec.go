package nerrors

import stderrors "errors"

var (
	// ErrIncorrectPrefix indicates the decoded payload did not start with
	// the expected fixed prefix.
	ErrIncorrectPrefix = stderrors.New("codec: incorrect prefix")
	// ErrPayloadTooShort indicates a payload shorter than its fixed layout
	// requires.
	ErrPayloadTooShort = stderrors.New("codec: payload too short")
	// ErrInstructionsUnordered indicates a transceiver instruction array did
	// not appear in the same relative order as the configured transceiver
	// list, or named an unconfigured transceiver.
	ErrInstructionsUnordered = stderrors.New("codec: unordered or unknown instruction")
)
