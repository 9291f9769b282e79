package parser

import (
	"encoding/hex"
	"fmt"
	"strings"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	bn254fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
)

//nolint:gomnd
func stringToG1(h []string) (*curve.G1Affine, error) {
	if len(h) <= 2 {
		return nil, fmt.Errorf("not enough data for stringToG1")
	}
	hexa := len(h[0]) > 1 && h[0][:2] == "0x"

	var b []byte
	if hexa {
		in := ""
		for i := range h[:2] {
			in += strings.TrimPrefix(h[i], "0x")
		}
		var err error
		b, err = hex.DecodeString(in)
		if err != nil {
			return nil, err
		}
	} else {
		for _, s := range h[:2] {
			bs, err := stringToBytes(s)
			if err != nil {
				return nil, fmt.Errorf("error parsing stringToG1: %w", err)
			}
			b = append(b, bs...)
		}
	}
	p := new(curve.G1Affine)
	if _, err := p.SetBytes(b); err != nil {
		return nil, err
	}
	return p, nil
}

func stringToG2(h [][]string) (*curve.G2Affine, error) {
	if len(h) <= 2 { //nolint:gomnd
		return nil, fmt.Errorf("not enough data for stringToG2")
	}
	for i := range h[:2] {
		if len(h[i]) != 2 { //nolint:gomnd
			return nil, fmt.Errorf("G2 coordinate %d must have two limbs", i)
		}
	}
	hexa := len(h[0][0]) > 1 && h[0][0][:2] == "0x"

	var b []byte
	if hexa {
		in := ""
		for i := 0; i < 2; i++ {
			for j := 0; j < len(h[i]); j++ {
				in += strings.TrimPrefix(h[i][j], "0x")
			}
		}
		var err error
		b, err = hex.DecodeString(in)
		if err != nil {
			return nil, err
		}
	} else {
		// gnark serializes the A1 limb of each coordinate first.
		for _, s := range []string{h[0][1], h[0][0], h[1][1], h[1][0]} {
			bs, err := stringToBytes(s)
			if err != nil {
				return nil, err
			}
			b = append(b, bs...)
		}
	}

	p := new(curve.G2Affine)
	if _, err := p.SetBytes(b); err != nil {
		return nil, err
	}
	return p, nil
}

// ParsePublicInputs parses an array of strings representing public inputs into a slice of bn254fr.Element.
// Values that are not reduced modulo the scalar field are rejected.
func ParsePublicInputs(publicSignals []string) ([]bn254fr.Element, error) {
	publicInputs := make([]bn254fr.Element, len(publicSignals))
	modulus := bn254fr.Modulus()
	for i, s := range publicSignals {
		bi, err := stringToBigInt(s)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public input %d: %w", i, err)
		}
		if bi.Sign() < 0 || bi.Cmp(modulus) >= 0 {
			return nil, fmt.Errorf("public input %d is not a field element", i)
		}
		publicInputs[i].SetBigInt(bi)
	}
	return publicInputs, nil
}

// ConvertProof converts a CircomProof into a Gnark-compatible Proof structure.
func ConvertProof(snarkProof *CircomProof) (*groth16_bn254.Proof, error) {
	if snarkProof == nil {
		return nil, fmt.Errorf("nil proof")
	}
	if snarkProof.Protocol != "" && snarkProof.Protocol != "groth16" {
		return nil, fmt.Errorf("unsupported proof protocol %q", snarkProof.Protocol)
	}
	// Parse PiA (G1 point)
	arG1, err := stringToG1(snarkProof.PiA)
	if err != nil {
		return nil, fmt.Errorf("failed to convert PiA: %w", err)
	}
	// Parse PiC (G1 point)
	krsG1, err := stringToG1(snarkProof.PiC)
	if err != nil {
		return nil, fmt.Errorf("failed to convert PiC: %w", err)
	}
	// Parse PiB (G2 point)
	bsG2, err := stringToG2(snarkProof.PiB)
	if err != nil {
		return nil, fmt.Errorf("failed to convert PiB: %w", err)
	}
	return &groth16_bn254.Proof{
		Ar:  *arG1,
		Krs: *krsG1,
		Bs:  *bsG2,
	}, nil
}

// ConvertVerificationKey converts a CircomVerificationKey into a Gnark-compatible VerifyingKey structure.
func ConvertVerificationKey(snarkVk *CircomVerificationKey) (*groth16_bn254.VerifyingKey, error) {
	if snarkVk == nil {
		return nil, fmt.Errorf("nil verification key")
	}
	// Parse vk_alpha_1 (G1 point)
	alphaG1, err := stringToG1(snarkVk.VkAlpha1)
	if err != nil {
		return nil, fmt.Errorf("failed to convert VkAlpha1: %w", err)
	}
	// Parse vk_beta_2 (G2 point)
	betaG2, err := stringToG2(snarkVk.VkBeta2)
	if err != nil {
		return nil, fmt.Errorf("failed to convert VkBeta2: %w", err)
	}
	// Parse vk_gamma_2 (G2 point)
	gammaG2, err := stringToG2(snarkVk.VkGamma2)
	if err != nil {
		return nil, fmt.Errorf("failed to convert VkGamma2: %w", err)
	}
	// Parse vk_delta_2 (G2 point)
	deltaG2, err := stringToG2(snarkVk.VkDelta2)
	if err != nil {
		return nil, fmt.Errorf("failed to convert VkDelta2: %w", err)
	}

	// Parse IC (G1 points for public inputs)
	G1K := make([]curve.G1Affine, len(snarkVk.IC))
	for i, icPoint := range snarkVk.IC {
		icG1, err := stringToG1(icPoint)
		if err != nil {
			return nil, fmt.Errorf("failed to convert IC[%d]: %w", i, err)
		}
		G1K[i] = *icG1
	}

	vk := &groth16_bn254.VerifyingKey{}
	vk.G1.Alpha = *alphaG1
	vk.G1.K = G1K
	vk.G2.Beta = *betaG2
	vk.G2.Gamma = *gammaG2
	vk.G2.Delta = *deltaG2

	// Precompute the necessary values (e, gammaNeg, deltaNeg)
	if err := vk.Precompute(); err != nil {
		return nil, fmt.Errorf("failed to precompute verification key: %w", err)
	}
	return vk, nil
}

// ConvertCircomToGnark converts a Circom verification key, proof and public signals into gnark types.
func ConvertCircomToGnark(circomVk *CircomVerificationKey, circomProof *CircomProof, publicSignals []string) (*GnarkProof, error) {
	publicInputs, err := ParsePublicInputs(publicSignals)
	if err != nil {
		return nil, err
	}
	proof, err := ConvertProof(circomProof)
	if err != nil {
		return nil, err
	}
	vk, err := ConvertVerificationKey(circomVk)
	if err != nil {
		return nil, err
	}
	return &GnarkProof{
		Proof:        proof,
		VerifyingKey: vk,
		PublicInputs: publicInputs,
	}, nil
}

// VerifyProof verifies the Gnark proof using the provided verification key and public inputs.
func VerifyProof(gnarkProof *groth16_bn254.Proof, vk *groth16_bn254.VerifyingKey, publicInputs []bn254fr.Element) (bool, error) {
	if len(publicInputs)+1 != len(vk.G1.K) {
		return false, fmt.Errorf("expected %d public inputs, got %d", len(vk.G1.K)-1, len(publicInputs))
	}
	if err := groth16_bn254.Verify(gnarkProof, vk, publicInputs); err != nil {
		return false, fmt.Errorf("proof verification failed: %w", err)
	}
	return true, nil
}
