// Package zkp coordinates certificate proofs: it maps a certificate record to
// the inputs of a zero-knowledge circuit, drives an injected prover and
// verifier, and builds and checks selective disclosure bundles on top of the
// per-field Merkle commitment.
package zkp

import (
	"context"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/vocdoni/zkcert/certificate"
	"github.com/vocdoni/zkcert/merkle"
	"github.com/vocdoni/zkcert/parser"
)

// Positions of the public signals every backend must expose. Backends may
// append further signals after SignalFieldsRoot.
const (
	SignalCertificateHash = iota
	SignalIssuerPublicKey
	SignalHolderPublicKey
	SignalTimestamp
	SignalFieldsRoot
)

// Public are the public inputs of a certificate proof.
type Public struct {
	CertificateHash fr.Element
	IssuerPublicKey fr.Element
	HolderPublicKey fr.Element
	Timestamp       fr.Element
	FieldsRoot      fr.Element
}

// Private is the witness that never leaves the prover.
type Private struct {
	Title        fr.Element
	Description  fr.Element
	Metadata     fr.Element
	IssuerSecret fr.Element
	Salt         fr.Element
}

// Inputs are the field encoded inputs handed to a Prover.
type Inputs struct {
	Public  Public
	Private Private
}

// Prover produces a proof and its public signals for the given inputs. The
// signals must start with the public inputs in the Signal* order.
type Prover interface {
	Prove(ctx context.Context, inputs *Inputs) (*parser.CircomProof, []string, error)
}

// Verifier checks a proof against a verification key and public signals. An
// invalid proof is reported as false; errors are reserved for a verifier that
// could not run.
type Verifier interface {
	Verify(ctx context.Context, vk *parser.CircomVerificationKey, publicSignals []string, proof *parser.CircomProof) (bool, error)
}

// ProofBundle is a proof as stored and exchanged by the rest of the system.
type ProofBundle struct {
	Proof         *parser.CircomProof `json:"proof"`
	PublicSignals []string            `json:"publicSignals"`
	ProofHash     string              `json:"proofHash"`
}

// FieldProof proves that Value is the committed value of Field.
type FieldProof struct {
	Field certificate.FieldID `json:"field"`
	Value string              `json:"value"`
	Proof []merkle.Step       `json:"proof"`
	Root  string              `json:"root"`
}

// DisclosureBundle reveals a subset of a certificate's fields together with
// the proof over the full record.
type DisclosureBundle struct {
	Proof           *ProofBundle                   `json:"proof"`
	DisclosedFields map[certificate.FieldID]string `json:"disclosedFields"`
	MerkleProofs    []FieldProof                   `json:"merkleProofs"`
}
