package parser

import (
	"fmt"
	"math/big"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/backend/witness"
)

// ConvertGnarkToCircom converts a Gnark proof (its proof, verifying key, and public inputs)
// into Circom‑compatible objects. It returns a CircomProof, a CircomVerificationKey and the
// public signals as a slice of strings.
func ConvertGnarkToCircom(proof groth16.Proof, vk groth16.VerifyingKey, publicWitness witness.Witness) (*CircomProof, *CircomVerificationKey, []string, error) {
	circomProof, err := ConvertProofToCircom(proof)
	if err != nil {
		return nil, nil, nil, err
	}
	circomVk, err := ConvertVerificationKeyToCircom(vk)
	if err != nil {
		return nil, nil, nil, err
	}
	publicSignals, err := PublicSignals(publicWitness)
	if err != nil {
		return nil, nil, nil, err
	}
	return circomProof, circomVk, publicSignals, nil
}

// ConvertProofToCircom converts a gnark BN254 Groth16 proof to the SnarkJS format.
func ConvertProofToCircom(proof groth16.Proof) (*CircomProof, error) {
	p, ok := proof.(*groth16_bn254.Proof)
	if !ok {
		return nil, fmt.Errorf("expected a bn254 proof, got %T", proof)
	}
	if len(p.Commitments) > 0 {
		return nil, fmt.Errorf("proofs with commitments have no SnarkJS representation")
	}
	piA, err := g1ToCircomString(&p.Ar)
	if err != nil {
		return nil, fmt.Errorf("failed to convert proof.Ar: %w", err)
	}
	piC, err := g1ToCircomString(&p.Krs)
	if err != nil {
		return nil, fmt.Errorf("failed to convert proof.Krs: %w", err)
	}
	piB, err := g2ToCircomString(&p.Bs)
	if err != nil {
		return nil, fmt.Errorf("failed to convert proof.Bs: %w", err)
	}
	return &CircomProof{
		PiA:      piA,
		PiB:      piB,
		PiC:      piC,
		Protocol: "groth16",
		Curve:    "bn128",
	}, nil
}

// ConvertVerificationKeyToCircom converts a gnark BN254 Groth16 verifying key to the
// SnarkJS verification_key.json format.
func ConvertVerificationKeyToCircom(vk groth16.VerifyingKey) (*CircomVerificationKey, error) {
	vkey, ok := vk.(*groth16_bn254.VerifyingKey)
	if !ok || vkey == nil {
		return nil, fmt.Errorf("expected a bn254 verifying key, got %T", vk)
	}

	vkAlpha1, err := g1ToCircomString(&vkey.G1.Alpha)
	if err != nil {
		return nil, fmt.Errorf("failed to convert vk.G1.Alpha: %w", err)
	}
	vkBeta2, err := g2ToCircomString(&vkey.G2.Beta)
	if err != nil {
		return nil, fmt.Errorf("failed to convert vk.G2.Beta: %w", err)
	}
	vkGamma2, err := g2ToCircomString(&vkey.G2.Gamma)
	if err != nil {
		return nil, fmt.Errorf("failed to convert vk.G2.Gamma: %w", err)
	}
	vkDelta2, err := g2ToCircomString(&vkey.G2.Delta)
	if err != nil {
		return nil, fmt.Errorf("failed to convert vk.G2.Delta: %w", err)
	}

	// Convert the IC array (G1 points for public inputs).
	ic := make([][]string, len(vkey.G1.K))
	for i := range vkey.G1.K {
		ptStr, err := g1ToCircomString(&vkey.G1.K[i])
		if err != nil {
			return nil, fmt.Errorf("failed to convert IC[%d]: %w", i, err)
		}
		ic[i] = ptStr
	}

	// Compute vk_alphabeta_12 = e(vk_alpha_1, vk_beta_2) in the Circom format.
	alphabeta, err := ComputeAlphabeta12(vkey.G1.Alpha, vkey.G2.Beta)
	if err != nil {
		return nil, fmt.Errorf("failed to compute vk_alphabeta_12: %w", err)
	}

	return &CircomVerificationKey{
		Protocol:      "groth16",
		Curve:         "bn128", // Circom uses "bn128" for bn254.
		NPublic:       len(ic) - 1,
		VkAlpha1:      vkAlpha1,
		VkBeta2:       vkBeta2,
		VkGamma2:      vkGamma2,
		VkDelta2:      vkDelta2,
		IC:            ic,
		VkAlphabeta12: alphabeta,
	}, nil
}

// PublicSignals converts a public witness into decimal public signals.
func PublicSignals(publicWitness witness.Witness) ([]string, error) {
	vec, ok := publicWitness.Vector().(fr.Vector)
	if !ok {
		return nil, fmt.Errorf("expected public witness vector to be of type bn254fr.Vector, got %T", publicWitness.Vector())
	}
	publicSignals := make([]string, len(vec))
	for i, input := range vec {
		publicSignals[i] = elementToString(input)
	}
	return publicSignals, nil
}

// g1ToCircomString converts a bn254 G1Affine point to a Circom‑compatible slice of strings.
// The returned slice is [ X, Y, "1" ] (all in decimal string format).
func g1ToCircomString(p *curve.G1Affine) ([]string, error) {
	if p == nil {
		return nil, fmt.Errorf("nil G1 point")
	}
	xBig := p.X.BigInt(new(big.Int))
	yBig := p.Y.BigInt(new(big.Int))
	return []string{
		xBig.String(),
		yBig.String(),
		"1",
	}, nil
}

// g2ToCircomString converts a bn254 G2Affine point to a Circom‑compatible 2D slice of strings.
// The returned value is of the form:
//
//	[ [ X.A0, X.A1 ], [ Y.A0, Y.A1 ], [ "1", "0" ] ]
//
// with all numbers in decimal.
func g2ToCircomString(p *curve.G2Affine) ([][]string, error) {
	if p == nil {
		return nil, fmt.Errorf("nil G2 point")
	}
	x0 := p.X.A0.BigInt(new(big.Int))
	x1 := p.X.A1.BigInt(new(big.Int))
	y0 := p.Y.A0.BigInt(new(big.Int))
	y1 := p.Y.A1.BigInt(new(big.Int))

	return [][]string{
		{x0.String(), x1.String()},
		{y0.String(), y1.String()},
		{"1", "0"},
	}, nil
}

// elementToString converts a bn254fr.Element to its decimal string representation.
func elementToString(e fr.Element) string {
	return e.BigInt(new(big.Int)).String()
}

// ComputeAlphabeta12 computes vk_alphabeta_12 = e(vk_alpha_1, vk_beta_2)
// and returns a 2×3×2 slice of decimal strings.
// The output format is:
//
//	[
//	  [ [C0.B0.A0, C0.B0.A1], [C0.B1.A0, C0.B1.A1], [C0.B2.A0, C0.B2.A1] ],
//	  [ [C1.B0.A0, C1.B0.A1], [C1.B1.A0, C1.B1.A1], [C1.B2.A0, C1.B2.A1] ]
//	]
func ComputeAlphabeta12(alpha curve.G1Affine, beta curve.G2Affine) ([][][]string, error) {
	gt, err := curve.Pair([]curve.G1Affine{alpha}, []curve.G2Affine{beta})
	if err != nil {
		return nil, fmt.Errorf("failed to compute pairing: %w", err)
	}

	str := func(v interface{ BigInt(*big.Int) *big.Int }) string {
		return v.BigInt(new(big.Int)).String()
	}
	c0, c1 := gt.C0, gt.C1
	out := [][][]string{
		{
			{str(&c0.B0.A0), str(&c0.B0.A1)},
			{str(&c0.B1.A0), str(&c0.B1.A1)},
			{str(&c0.B2.A0), str(&c0.B2.A1)},
		},
		{
			{str(&c1.B0.A0), str(&c1.B0.A1)},
			{str(&c1.B1.A0), str(&c1.B1.A1)},
			{str(&c1.B2.A0), str(&c1.B2.A1)},
		},
	}
	return out, nil
}

// PublicWitnessFromVector creates a witness.Witness from a []fr.Element.
// It assumes that the entire vector represents the public inputs (with no secret inputs).
func PublicWitnessFromVector(vec []fr.Element) (witness.Witness, error) {
	w, err := witness.New(fr.Modulus())
	if err != nil {
		return nil, fmt.Errorf("failed to create witness: %w", err)
	}

	ch := make(chan any, len(vec))
	for _, e := range vec {
		ch <- e
	}
	close(ch)

	if err := w.Fill(len(vec), 0, ch); err != nil {
		return nil, fmt.Errorf("failed to fill witness: %w", err)
	}
	return w, nil
}
