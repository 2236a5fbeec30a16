package zkvm

import "errors"

var (
	// ErrGuestAborted wraps the error a program returned from Execute.
	ErrGuestAborted  = errors.New("guest aborted")
	ErrProvingFailed = errors.New("proving failed")
	ErrImageMismatch = errors.New("receipt image id does not match the expected one")
	ErrUnknownImage  = errors.New("unknown image id")
	ErrSealInvalid   = errors.New("seal does not verify")
	ErrNoProvingKey  = errors.New("program was loaded without a proving key")

	ErrKeysNotFound   = errors.New("no keys stored for program")
	ErrDigestMismatch = errors.New("stored keys were set up for a different circuit")
)
