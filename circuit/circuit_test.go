package circuit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/require"

	"github.com/vocdoni/zkcert/field"
	"github.com/vocdoni/zkcert/parser"
)

func testValues() *Values {
	return &Values{
		CertificateHash: field.FromText("ded83f1cdd123393f41bec3d816729691879c3201b75fdad78c4d53d6614482b"),
		IssuerPublicKey: field.FromText("issuer-key"),
		HolderPublicKey: field.FromText("holder-1"),
		Timestamp:       field.FromInt64(1700000000),
		FieldsRoot:      field.FromText("4110a699f9830b22a7a7a381ccce2e24d0031434cc938f8706a1bff5372d2e6c"),
		Title:           field.FromText("BSc CS"),
		Description:     field.FromText("Honours"),
		Metadata:        field.FromText(`{"gpa":"3.8"}`),
		IssuerSecret:    field.FromText("secret"),
		Salt:            field.FromText("default_salt"),
	}
}

func TestCircuitSolved(t *testing.T) {
	assignment, err := testValues().Assignment()
	require.NoError(t, err)
	require.NoError(t, test.IsSolved(&Circuit{}, assignment, ecc.BN254.ScalarField()))
}

func TestCircuitRejectsWrongBinding(t *testing.T) {
	assignment, err := testValues().Assignment()
	require.NoError(t, err)
	assignment.Timestamp = field.BigInt(field.FromInt64(1700000001))
	require.Error(t, test.IsSolved(&Circuit{}, assignment, ecc.BN254.ScalarField()))

	assignment, err = testValues().Assignment()
	require.NoError(t, err)
	assignment.Title = field.BigInt(field.FromText("MSc CS"))
	require.Error(t, test.IsSolved(&Circuit{}, assignment, ecc.BN254.ScalarField()))
}

func TestCircuitRejectsZeroSecret(t *testing.T) {
	v := testValues()
	v.IssuerSecret = field.FromInt64(0)
	assignment, err := v.Assignment()
	require.NoError(t, err)
	require.Error(t, test.IsSolved(&Circuit{}, assignment, ecc.BN254.ScalarField()))
}

func TestBindingDeterministic(t *testing.T) {
	a, err := testValues().Binding()
	require.NoError(t, err)
	b, err := testValues().Binding()
	require.NoError(t, err)
	require.True(t, a.Equal(&b))

	v := testValues()
	v.Salt = field.FromText("other_salt")
	c, err := v.Binding()
	require.NoError(t, err)
	require.False(t, a.Equal(&c))
}

func TestArtifactsSaveLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("groth16 setup is slow")
	}
	artifacts, err := Setup()
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "artifacts")
	require.NoError(t, artifacts.Save(dir))
	for _, name := range []string{CircuitFile, ProvingKeyFile, VerifyingKeyFile, VerificationKeyJSONFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
	}

	loaded, err := Load(dir)
	require.NoError(t, err)

	assignment, err := testValues().Assignment()
	require.NoError(t, err)
	full, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	require.NoError(t, err)
	public, err := full.Public()
	require.NoError(t, err)

	proof, err := groth16.Prove(loaded.CCS, loaded.PK, full)
	require.NoError(t, err)
	require.NoError(t, groth16.Verify(proof, artifacts.VK, public))

	// The SnarkJS key written next to the binary keys verifies the same proof.
	vkJSON, err := os.ReadFile(filepath.Join(dir, VerificationKeyJSONFile))
	require.NoError(t, err)
	circomVk, err := parser.UnmarshalCircomVerificationKeyJSON(vkJSON)
	require.NoError(t, err)
	require.Equal(t, 6, circomVk.NPublic)

	circomProof, err := parser.ConvertProofToCircom(proof)
	require.NoError(t, err)
	signals, err := parser.PublicSignals(public)
	require.NoError(t, err)
	require.Equal(t, field.String(testValues().CertificateHash), signals[0])

	gnarkProof, err := parser.ConvertCircomToGnark(circomVk, circomProof, signals)
	require.NoError(t, err)
	ok, err := parser.VerifyProof(gnarkProof.Proof, gnarkProof.VerifyingKey, gnarkProof.PublicInputs)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	require.True(t, errors.Is(err, ErrArtifactsNotFound))
}
