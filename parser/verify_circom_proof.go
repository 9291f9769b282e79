package parser

import (
	"fmt"
	"os"

	"github.com/vocdoni/go-snark/parsers"
	"github.com/vocdoni/go-snark/verifier"
)

// VerifyCircomProofJSON verifies a SnarkJS proof using go-snark, an independent Go
// implementation of the SnarkJS Groth16 verifier. The parameters are the JSON
// encoded proof, verification key and public signals.
// The function returns true if the proof is valid, false otherwise.
// An error is returned if the JSON data cannot be parsed.
func VerifyCircomProofJSON(proofJSON, vkJSON, publicJSON []byte) (bool, error) {
	public, err := parsers.ParsePublicSignals(publicJSON)
	if err != nil {
		return false, fmt.Errorf("failed to parse public signals: %w", err)
	}
	proof, err := parsers.ParseProof(proofJSON)
	if err != nil {
		return false, fmt.Errorf("failed to parse proof: %w", err)
	}
	vk, err := parsers.ParseVk(vkJSON)
	if err != nil {
		return false, fmt.Errorf("failed to parse verification key: %w", err)
	}
	if len(public)+1 != len(vk.IC) {
		return false, nil
	}
	return verifier.Verify(vk, proof, public), nil
}

// VerifyCircomProof verifies a Circom proof stored on disk.
// The parameters are the paths to the proof, verification key, and public signals JSON files.
func VerifyCircomProof(proofPath, verificationKeyPath, publicPath string) (bool, error) {
	proofJSON, err := os.ReadFile(proofPath) //nolint:gosec
	if err != nil {
		return false, err
	}
	vkJSON, err := os.ReadFile(verificationKeyPath) //nolint:gosec
	if err != nil {
		return false, err
	}
	publicJSON, err := os.ReadFile(publicPath) //nolint:gosec
	if err != nil {
		return false, err
	}
	return VerifyCircomProofJSON(proofJSON, vkJSON, publicJSON)
}
