package zkp

import "errors"

var (
	// ErrUninitialized is returned by verify operations called before a
	// verification key has been loaded.
	ErrUninitialized = errors.New("verification key not initialized")
	// ErrProverBackend wraps failures of the injected prover.
	ErrProverBackend = errors.New("prover backend failed")
	// ErrVerifierBackend wraps failures of the injected verifier. An invalid
	// proof is not a verifier failure.
	ErrVerifierBackend = errors.New("verifier backend failed")
)
