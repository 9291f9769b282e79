package zkp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	"github.com/vocdoni/zkcert/certificate"
	"github.com/vocdoni/zkcert/field"
	"github.com/vocdoni/zkcert/merkle"
	"github.com/vocdoni/zkcert/parser"
)

// DefaultSalt is the salt used for disclosure proofs unless overridden.
const DefaultSalt = "default_salt"

// Coordinator drives certificate proofs through an injected Prover and
// Verifier. The verification key is loaded once, after which a Coordinator is
// safe for concurrent use.
type Coordinator struct {
	prover      Prover
	verifier    Verifier
	defaultSalt string
	log         zerolog.Logger

	initMu sync.Mutex
	vk     atomic.Pointer[parser.CircomVerificationKey]
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithVerificationKey installs an already parsed verification key, making
// Initialize unnecessary.
func WithVerificationKey(vk *parser.CircomVerificationKey) Option {
	return func(c *Coordinator) {
		if vk != nil {
			c.vk.Store(vk)
		}
	}
}

// WithLogger sets the logger used by the coordinator.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.log = l
	}
}

// WithDefaultSalt sets the salt used by GenerateSelectiveDisclosureProof and
// by GenerateProof when called with an empty salt.
func WithDefaultSalt(salt string) Option {
	return func(c *Coordinator) {
		if salt != "" {
			c.defaultSalt = salt
		}
	}
}

// NewCoordinator returns a coordinator using the given backends.
func NewCoordinator(prover Prover, verifier Verifier, opts ...Option) *Coordinator {
	c := &Coordinator{
		prover:      prover,
		verifier:    verifier,
		defaultSalt: DefaultSalt,
		log:         logger.Logger().With().Str("component", "zkp").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize loads and parses the verification key from src. Once a key is
// held further calls return immediately; a failed load leaves the coordinator
// uninitialized so it can be retried.
func (c *Coordinator) Initialize(ctx context.Context, src KeySource) error {
	if c.vk.Load() != nil {
		return nil
	}
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.vk.Load() != nil {
		return nil
	}
	data, err := src.LoadVerificationKey(ctx)
	if err != nil {
		return err
	}
	vk, err := parser.UnmarshalCircomVerificationKeyJSON(data)
	if err != nil {
		return err
	}
	c.vk.Store(vk)
	c.log.Info().Int("nPublic", vk.NPublic).Msg("verification key loaded")
	return nil
}

// Initialized reports whether a verification key is loaded.
func (c *Coordinator) Initialized() bool {
	return c.vk.Load() != nil
}

// VerificationKey returns the loaded key, or nil.
func (c *Coordinator) VerificationKey() *parser.CircomVerificationKey {
	return c.vk.Load()
}

// DefaultSalt returns the salt used for disclosure proofs.
func (c *Coordinator) DefaultSalt() string {
	return c.defaultSalt
}

// IssuerPublicKey derives the public identifier of an issuer as the hex
// SHA-256 of secret || salt.
func IssuerPublicKey(issuerSecret, salt string) string {
	return certificate.HashText(issuerSecret + salt).Hex()
}

// BuildInputs maps a record and the issuer's secret material to circuit
// inputs. The fingerprint, identifiers and text fields are hashed into the
// field; the timestamp is used directly and must not be negative.
func BuildInputs(record *certificate.Record, issuerSecret, salt string) (*Inputs, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: nil record", certificate.ErrEncoding)
	}
	if issuerSecret == "" {
		return nil, fmt.Errorf("%w: empty issuer secret", certificate.ErrEncoding)
	}
	if record.Timestamp < 0 {
		return nil, fmt.Errorf("%w: negative timestamp %d", certificate.ErrEncoding, record.Timestamp)
	}
	fp, err := record.Fingerprint()
	if err != nil {
		return nil, err
	}
	meta, err := record.FieldText(certificate.FieldMetadata)
	if err != nil {
		return nil, err
	}
	tree, _, err := merkle.ForRecord(record)
	if err != nil {
		return nil, err
	}
	return &Inputs{
		Public: Public{
			CertificateHash: field.FromText(string(fp)),
			IssuerPublicKey: field.FromText(IssuerPublicKey(issuerSecret, salt)),
			HolderPublicKey: field.FromText(record.Holder),
			Timestamp:       field.FromInt64(record.Timestamp),
			FieldsRoot:      field.FromText(tree.RootHex()),
		},
		Private: Private{
			Title:        field.FromText(record.Title),
			Description:  field.FromText(record.Description),
			Metadata:     field.FromText(meta),
			IssuerSecret: field.FromText(issuerSecret),
			Salt:         field.FromText(salt),
		},
	}, nil
}

// ProofHash returns hex(SHA-256(json(proof) || json(publicSignals))).
func ProofHash(proof *parser.CircomProof, publicSignals []string) (string, error) {
	proofJSON, err := json.Marshal(proof)
	if err != nil {
		return "", fmt.Errorf("%w: %v", certificate.ErrEncoding, err)
	}
	signalsJSON, err := json.Marshal(publicSignals)
	if err != nil {
		return "", fmt.Errorf("%w: %v", certificate.ErrEncoding, err)
	}
	h := sha256.New()
	h.Write(proofJSON)
	h.Write(signalsJSON)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// GenerateProof proves the record with the issuer's secret. An empty salt
// selects the coordinator's default salt.
func (c *Coordinator) GenerateProof(ctx context.Context, record *certificate.Record, issuerSecret, salt string) (*ProofBundle, error) {
	if c.prover == nil {
		return nil, fmt.Errorf("%w: no prover configured", ErrProverBackend)
	}
	if salt == "" {
		salt = c.defaultSalt
	}
	inputs, err := BuildInputs(record, issuerSecret, salt)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	proof, signals, err := c.prover.Prove(ctx, inputs)
	if err != nil {
		c.log.Warn().Err(err).Msg("proof generation failed")
		return nil, fmt.Errorf("%w: %w", ErrProverBackend, err)
	}
	if proof == nil || len(signals) <= SignalFieldsRoot {
		return nil, fmt.Errorf("%w: prover returned %d public signals", ErrProverBackend, len(signals))
	}
	c.log.Debug().Dur("took", time.Since(startTime)).Int("signals", len(signals)).Msg("proof generated")

	proofHash, err := ProofHash(proof, signals)
	if err != nil {
		return nil, err
	}
	return &ProofBundle{
		Proof:         proof,
		PublicSignals: signals,
		ProofHash:     proofHash,
	}, nil
}

// VerifyProof verifies a proof against the loaded key. If expectedFingerprint
// is not empty the first public signal must also encode it. Invalid proofs
// return false; errors mean the check could not be carried out.
func (c *Coordinator) VerifyProof(ctx context.Context, proof *parser.CircomProof, publicSignals []string, expectedFingerprint certificate.Fingerprint) (bool, error) {
	vk := c.vk.Load()
	if vk == nil {
		return false, ErrUninitialized
	}
	if c.verifier == nil {
		return false, fmt.Errorf("%w: no verifier configured", ErrVerifierBackend)
	}
	if proof == nil || len(publicSignals) == 0 {
		return false, nil
	}
	if expectedFingerprint != "" {
		got, err := field.Parse(publicSignals[SignalCertificateHash])
		if err != nil {
			return false, nil
		}
		want := field.FromText(string(expectedFingerprint))
		if !got.Equal(&want) {
			c.log.Debug().Str("fingerprint", string(expectedFingerprint)).Msg("certificate hash does not match the expected fingerprint")
			return false, nil
		}
	}

	startTime := time.Now()
	ok, err := c.verifier.Verify(ctx, vk, publicSignals, proof)
	if err != nil {
		c.log.Warn().Err(err).Msg("verifier backend failed")
		return false, fmt.Errorf("%w: %w", ErrVerifierBackend, err)
	}
	c.log.Debug().Bool("valid", ok).Dur("took", time.Since(startTime)).Msg("proof verified")
	return ok, nil
}

// VerifyBundle checks the bundle's proof hash and then its proof.
func (c *Coordinator) VerifyBundle(ctx context.Context, bundle *ProofBundle, expectedFingerprint certificate.Fingerprint) (bool, error) {
	if c.vk.Load() == nil {
		return false, ErrUninitialized
	}
	if bundle == nil || bundle.Proof == nil {
		return false, nil
	}
	proofHash, err := ProofHash(bundle.Proof, bundle.PublicSignals)
	if err != nil || proofHash != bundle.ProofHash {
		return false, nil
	}
	return c.VerifyProof(ctx, bundle.Proof, bundle.PublicSignals, expectedFingerprint)
}
