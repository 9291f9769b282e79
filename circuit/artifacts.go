package circuit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/logger"

	"github.com/vocdoni/zkcert/parser"
)

// Artifact file names inside an artifacts directory.
const (
	CircuitFile             = "certificate.r1cs"
	ProvingKeyFile          = "certificate.pk"
	VerifyingKeyFile        = "certificate.vk"
	VerificationKeyJSONFile = "verification_key.json"
)

// ErrArtifactsNotFound is returned by Load when the directory holds no circuit.
var ErrArtifactsNotFound = errors.New("circuit artifacts not found")

// Artifacts are the compiled circuit and its Groth16 keys.
type Artifacts struct {
	CCS constraint.ConstraintSystem
	PK  groth16.ProvingKey
	VK  groth16.VerifyingKey
}

// Compile compiles the certificate circuit over the BN254 scalar field.
func Compile() (constraint.ConstraintSystem, error) {
	var c Circuit
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &c)
	if err != nil {
		return nil, fmt.Errorf("certificate circuit compilation failed: %w", err)
	}
	return ccs, nil
}

// Setup compiles the circuit and runs a Groth16 setup. The setup is not a
// multi-party ceremony: whoever runs it can forge proofs, so production keys
// must come from a trusted setup and be distributed with Load.
func Setup() (*Artifacts, error) {
	log := logger.Logger().With().Str("component", "circuit").Logger()

	startTime := time.Now()
	ccs, err := Compile()
	if err != nil {
		return nil, err
	}
	log.Debug().Int("constraints", ccs.GetNbConstraints()).Dur("took", time.Since(startTime)).Msg("circuit compiled")

	startTime = time.Now()
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup failed: %w", err)
	}
	log.Debug().Dur("took", time.Since(startTime)).Msg("groth16 setup done")

	return &Artifacts{CCS: ccs, PK: pk, VK: vk}, nil
}

// VerificationKey returns the verifying key in SnarkJS form.
func (a *Artifacts) VerificationKey() (*parser.CircomVerificationKey, error) {
	return parser.ConvertVerificationKeyToCircom(a.VK)
}

// VerificationKeyJSON returns the SnarkJS verification_key.json document.
func (a *Artifacts) VerificationKeyJSON() ([]byte, error) {
	vk, err := a.VerificationKey()
	if err != nil {
		return nil, err
	}
	vkJSON, err := parser.MarshalCircomVerificationKeyJSON(vk)
	if err != nil {
		return nil, fmt.Errorf("error encoding verification key: %w", err)
	}
	return vkJSON, nil
}

// Save writes the circuit, both keys and the SnarkJS verification_key.json to dir.
func (a *Artifacts) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("error creating %s: %w", dir, err)
	}
	if err := writeFile(filepath.Join(dir, CircuitFile), func(f *os.File) error {
		_, err := a.CCS.WriteTo(f)
		return err
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, ProvingKeyFile), func(f *os.File) error {
		_, err := a.PK.WriteTo(f)
		return err
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, VerifyingKeyFile), func(f *os.File) error {
		_, err := a.VK.WriteRawTo(f)
		return err
	}); err != nil {
		return err
	}

	vkJSON, err := a.VerificationKeyJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, VerificationKeyJSONFile), vkJSON, 0o600); err != nil {
		return fmt.Errorf("error writing %s: %w", VerificationKeyJSONFile, err)
	}
	return nil
}

// Load reads artifacts previously written by Save. It returns
// ErrArtifactsNotFound if the circuit file does not exist.
func Load(dir string) (*Artifacts, error) {
	log := logger.Logger().With().Str("component", "circuit").Logger()
	startTime := time.Now()

	circuitPath := filepath.Join(dir, CircuitFile)
	if _, err := os.Stat(circuitPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w in %s", ErrArtifactsNotFound, dir)
		}
		return nil, err
	}

	ccs := groth16.NewCS(ecc.BN254)
	if err := readFile(circuitPath, func(f *os.File) error {
		_, err := ccs.ReadFrom(f)
		return err
	}); err != nil {
		return nil, err
	}

	pk := groth16.NewProvingKey(ecc.BN254)
	if err := readFile(filepath.Join(dir, ProvingKeyFile), func(f *os.File) error {
		_, err := pk.UnsafeReadFrom(f)
		return err
	}); err != nil {
		return nil, err
	}

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if err := readFile(filepath.Join(dir, VerifyingKeyFile), func(f *os.File) error {
		_, err := vk.ReadFrom(f)
		return err
	}); err != nil {
		return nil, err
	}

	log.Debug().Str("dir", dir).Dur("took", time.Since(startTime)).Msg("circuit artifacts loaded")
	return &Artifacts{CCS: ccs, PK: pk, VK: vk}, nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return f.Close()
}

func readFile(path string, read func(*os.File) error) error {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()
	if err := read(f); err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	return nil
}
