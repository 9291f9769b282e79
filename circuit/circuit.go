// Package circuit contains the reference Groth16 circuit for certificate
// proofs and the tooling to set up, store and load its artifacts.
//
// The circuit proves knowledge of the private certificate fields, the issuer
// secret and the salt that, together with the public inputs, hash (MiMC) to
// the public Binding value. Public inputs are declared in signal order, so the
// certificate hash is always public signal 0.
package circuit

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark/frontend"
	stdmimc "github.com/consensys/gnark/std/hash/mimc"

	"github.com/vocdoni/zkcert/field"
)

// bindingDST domain separates the binding digest from any other MiMC use.
var bindingDST = field.FromText("zkcert/certificate-binding/v1")

// Circuit is the certificate circuit.
type Circuit struct {
	// Public inputs, in public signal order.
	CertificateHash frontend.Variable `gnark:",public"`
	IssuerPublicKey frontend.Variable `gnark:",public"`
	HolderPublicKey frontend.Variable `gnark:",public"`
	Timestamp       frontend.Variable `gnark:",public"`
	FieldsRoot      frontend.Variable `gnark:",public"`
	Binding         frontend.Variable `gnark:",public"`

	// Private witness.
	Title        frontend.Variable
	Description  frontend.Variable
	Metadata     frontend.Variable
	IssuerSecret frontend.Variable
	Salt         frontend.Variable
}

// Define declares the circuit's constraints.
func (c *Circuit) Define(api frontend.API) error {
	h, err := stdmimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Write(
		field.BigInt(bindingDST),
		c.CertificateHash,
		c.IssuerPublicKey,
		c.HolderPublicKey,
		c.Timestamp,
		c.FieldsRoot,
		c.Title,
		c.Description,
		c.Metadata,
		c.IssuerSecret,
		c.Salt,
	)
	api.AssertIsEqual(h.Sum(), c.Binding)
	api.AssertIsDifferent(c.IssuerSecret, 0)
	return nil
}

// Values are the field encoded inputs of one proof.
type Values struct {
	CertificateHash fr.Element
	IssuerPublicKey fr.Element
	HolderPublicKey fr.Element
	Timestamp       fr.Element
	FieldsRoot      fr.Element

	Title        fr.Element
	Description  fr.Element
	Metadata     fr.Element
	IssuerSecret fr.Element
	Salt         fr.Element
}

// Binding computes natively the digest the circuit constrains.
func (v *Values) Binding() (fr.Element, error) {
	h := mimc.NewMiMC()
	dst := bindingDST
	inputs := []*fr.Element{
		&dst,
		&v.CertificateHash,
		&v.IssuerPublicKey,
		&v.HolderPublicKey,
		&v.Timestamp,
		&v.FieldsRoot,
		&v.Title,
		&v.Description,
		&v.Metadata,
		&v.IssuerSecret,
		&v.Salt,
	}
	for i, e := range inputs {
		if _, err := h.Write(e.Marshal()); err != nil {
			return fr.Element{}, fmt.Errorf("mimc write of input %d: %w", i, err)
		}
	}
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out, nil
}

// Assignment returns the full circuit assignment, binding included.
func (v *Values) Assignment() (*Circuit, error) {
	binding, err := v.Binding()
	if err != nil {
		return nil, err
	}
	return &Circuit{
		CertificateHash: field.BigInt(v.CertificateHash),
		IssuerPublicKey: field.BigInt(v.IssuerPublicKey),
		HolderPublicKey: field.BigInt(v.HolderPublicKey),
		Timestamp:       field.BigInt(v.Timestamp),
		FieldsRoot:      field.BigInt(v.FieldsRoot),
		Binding:         field.BigInt(binding),
		Title:           field.BigInt(v.Title),
		Description:     field.BigInt(v.Description),
		Metadata:        field.BigInt(v.Metadata),
		IssuerSecret:    field.BigInt(v.IssuerSecret),
		Salt:            field.BigInt(v.Salt),
	}, nil
}
