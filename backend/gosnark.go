package backend

import (
	"context"
	"fmt"

	"github.com/vocdoni/zkcert/parser"
)

// GoSnarkVerifier verifies proofs with go-snark, independently of gnark.
type GoSnarkVerifier struct{}

// Verify implements zkp.Verifier.
func (GoSnarkVerifier) Verify(ctx context.Context, vk *parser.CircomVerificationKey, publicSignals []string, proof *parser.CircomProof) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if vk == nil || len(vk.IC) == 0 {
		return false, fmt.Errorf("unusable verification key")
	}
	vkJSON, err := parser.MarshalCircomVerificationKeyJSON(vk)
	if err != nil {
		return false, fmt.Errorf("failed to encode verification key: %w", err)
	}
	if proof == nil {
		return false, nil
	}
	proofJSON, err := parser.MarshalCircomProofJSON(proof)
	if err != nil {
		return false, nil
	}
	publicJSON, err := parser.MarshalCircomPublicSignalsJSON(publicSignals)
	if err != nil {
		return false, nil
	}
	ok, err := parser.VerifyCircomProofJSON(proofJSON, vkJSON, publicJSON)
	if err != nil {
		return false, nil
	}
	return ok, nil
}
