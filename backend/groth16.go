// Package backend provides the Groth16 prover and verifiers used by the zkp
// coordinator: a gnark prover for the reference certificate circuit, a gnark
// verifier and a go-snark verifier for SnarkJS compatible proofs.
package backend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	"github.com/vocdoni/zkcert/circuit"
	"github.com/vocdoni/zkcert/parser"
	"github.com/vocdoni/zkcert/zkp"
)

// Groth16Prover proves the reference certificate circuit with gnark.
type Groth16Prover struct {
	artifacts *circuit.Artifacts
	log       zerolog.Logger
}

// NewGroth16Prover returns a prover using the given circuit artifacts.
func NewGroth16Prover(artifacts *circuit.Artifacts) *Groth16Prover {
	return &Groth16Prover{
		artifacts: artifacts,
		log:       logger.Logger().With().Str("component", "groth16-prover").Logger(),
	}
}

// Prove implements zkp.Prover. The returned signals are the circuit's public
// inputs, the MiMC binding being the last one.
func (p *Groth16Prover) Prove(ctx context.Context, inputs *zkp.Inputs) (*parser.CircomProof, []string, error) {
	if p.artifacts == nil || p.artifacts.CCS == nil || p.artifacts.PK == nil {
		return nil, nil, fmt.Errorf("prover has no circuit artifacts")
	}
	if inputs == nil {
		return nil, nil, fmt.Errorf("nil inputs")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	values := &circuit.Values{
		CertificateHash: inputs.Public.CertificateHash,
		IssuerPublicKey: inputs.Public.IssuerPublicKey,
		HolderPublicKey: inputs.Public.HolderPublicKey,
		Timestamp:       inputs.Public.Timestamp,
		FieldsRoot:      inputs.Public.FieldsRoot,
		Title:           inputs.Private.Title,
		Description:     inputs.Private.Description,
		Metadata:        inputs.Private.Metadata,
		IssuerSecret:    inputs.Private.IssuerSecret,
		Salt:            inputs.Private.Salt,
	}
	assignment, err := values.Assignment()
	if err != nil {
		return nil, nil, err
	}
	fullWitness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create witness: %w", err)
	}
	publicWitness, err := fullWitness.Public()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get public witness: %w", err)
	}

	startTime := time.Now()
	proof, err := groth16.Prove(p.artifacts.CCS, p.artifacts.PK, fullWitness)
	if err != nil {
		return nil, nil, fmt.Errorf("groth16 proving failed: %w", err)
	}
	p.log.Debug().Dur("took", time.Since(startTime)).Msg("groth16 proof generated")
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	circomProof, err := parser.ConvertProofToCircom(proof)
	if err != nil {
		return nil, nil, err
	}
	signals, err := parser.PublicSignals(publicWitness)
	if err != nil {
		return nil, nil, err
	}
	return circomProof, signals, nil
}

// Groth16Verifier verifies SnarkJS formatted proofs with gnark. Converted
// verifying keys are cached per key pointer.
type Groth16Verifier struct {
	keys sync.Map // *parser.CircomVerificationKey -> *groth16_bn254.VerifyingKey
}

// NewGroth16Verifier returns an empty verifier.
func NewGroth16Verifier() *Groth16Verifier {
	return &Groth16Verifier{}
}

// Verify implements zkp.Verifier. Malformed proofs or signals and failed
// pairing checks are reported as false. An unusable key is an error.
func (v *Groth16Verifier) Verify(ctx context.Context, vk *parser.CircomVerificationKey, publicSignals []string, proof *parser.CircomProof) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key, err := v.verifyingKey(vk)
	if err != nil {
		return false, err
	}
	gnarkProof, err := parser.ConvertProof(proof)
	if err != nil {
		return false, nil
	}
	inputs, err := parser.ParsePublicInputs(publicSignals)
	if err != nil {
		return false, nil
	}
	if len(inputs)+1 != len(key.G1.K) {
		return false, nil
	}
	ok, err := parser.VerifyProof(gnarkProof, key, inputs)
	if err != nil {
		return false, nil
	}
	return ok, nil
}

func (v *Groth16Verifier) verifyingKey(vk *parser.CircomVerificationKey) (*groth16_bn254.VerifyingKey, error) {
	if vk == nil {
		return nil, fmt.Errorf("nil verification key")
	}
	if key, ok := v.keys.Load(vk); ok {
		return key.(*groth16_bn254.VerifyingKey), nil
	}
	key, err := parser.ConvertVerificationKey(vk)
	if err != nil {
		return nil, err
	}
	actual, _ := v.keys.LoadOrStore(vk, key)
	return actual.(*groth16_bn254.VerifyingKey), nil
}
