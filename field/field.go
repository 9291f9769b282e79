// Package field maps digests and text into the BN254 scalar field, the
// native value type of the certificate circuit, and encodes field elements as
// the decimal strings used for public signals.
package field

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// ModulusDecimal is the order of the BN254 scalar field.
const ModulusDecimal = "21888242871839275222246405745257275088548364400416034343698204186575808495617"

// Modulus returns a copy of the BN254 scalar field order.
func Modulus() *big.Int {
	return fr.Modulus()
}

// FromDigest interprets digest as a big-endian unsigned integer and reduces it
// modulo the field order.
func FromDigest(digest []byte) fr.Element {
	v := new(big.Int).SetBytes(digest)
	v.Mod(v, fr.Modulus())
	var e fr.Element
	e.SetBigInt(v)
	return e
}

// FromText returns SHA-256(s) reduced into the field. The mapping is one-way;
// it is also used to bring private witnesses such as issuer secrets into the
// field.
func FromText(s string) fr.Element {
	d := sha256.Sum256([]byte(s))
	return FromDigest(d[:])
}

// FromInt64 maps a small integer directly, without hashing.
func FromInt64(v int64) fr.Element {
	var e fr.Element
	e.SetInt64(v)
	return e
}

// String returns the decimal representation of e.
func String(e fr.Element) string {
	return e.BigInt(new(big.Int)).String()
}

// BigInt returns e as a big.Int.
func BigInt(e fr.Element) *big.Int {
	return e.BigInt(new(big.Int))
}

// Parse decodes a decimal public signal. Values outside [0, modulus) are
// rejected rather than reduced, so every element has a single encoding.
func Parse(s string) (fr.Element, error) {
	var e fr.Element
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return e, fmt.Errorf("invalid decimal field element %q", s)
	}
	if v.Sign() < 0 || v.Cmp(fr.Modulus()) >= 0 {
		return e, fmt.Errorf("field element %s out of range", s)
	}
	e.SetBigInt(v)
	return e, nil
}

// Strings encodes a slice of elements as decimal strings.
func Strings(elems []fr.Element) []string {
	out := make([]string, len(elems))
	for i := range elems {
		out[i] = String(elems[i])
	}
	return out
}
