// Package parser converts Groth16 proofs and verification keys between the
// SnarkJS (Circom) JSON format, which is the wire format of certificate
// proofs, and gnark's BN254 structures used to create and check them.
package parser

import (
	"encoding/json"
	"fmt"
)

// UnmarshalCircomProofJSON parses the JSON-encoded proof data into a CircomProof struct.
func UnmarshalCircomProofJSON(data []byte) (*CircomProof, error) {
	var proof CircomProof
	err := json.Unmarshal(data, &proof)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proof JSON: %w", err)
	}
	return &proof, nil
}

// UnmarshalCircomVerificationKeyJSON parses the JSON-encoded verification key data into a CircomVerificationKey struct.
func UnmarshalCircomVerificationKeyJSON(data []byte) (*CircomVerificationKey, error) {
	var vk CircomVerificationKey
	err := json.Unmarshal(data, &vk)
	if err != nil {
		return nil, fmt.Errorf("failed to parse verification key JSON: %w", err)
	}
	if vk.Protocol != "" && vk.Protocol != "groth16" {
		return nil, fmt.Errorf("unsupported verification key protocol %q", vk.Protocol)
	}
	if len(vk.IC) == 0 {
		return nil, fmt.Errorf("verification key has no IC points")
	}
	return &vk, nil
}

// UnmarshalCircomPublicSignalsJSON parses the JSON-encoded public signals data into a slice of strings.
func UnmarshalCircomPublicSignalsJSON(data []byte) ([]string, error) {
	var publicSignals []string
	if err := json.Unmarshal(data, &publicSignals); err != nil {
		return nil, fmt.Errorf("error parsing public signals: %w", err)
	}
	return publicSignals, nil
}

// MarshalCircomProofJSON encodes a proof as SnarkJS proof.json.
func MarshalCircomProofJSON(proof *CircomProof) ([]byte, error) {
	return json.Marshal(proof)
}

// MarshalCircomVerificationKeyJSON encodes a key as SnarkJS verification_key.json.
func MarshalCircomVerificationKeyJSON(vk *CircomVerificationKey) ([]byte, error) {
	return json.MarshalIndent(vk, "", "  ")
}

// MarshalCircomPublicSignalsJSON encodes public signals as SnarkJS public.json.
func MarshalCircomPublicSignalsJSON(publicSignals []string) ([]byte, error) {
	return json.Marshal(publicSignals)
}
