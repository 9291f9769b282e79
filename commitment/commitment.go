// Package commitment implements a hash based commitment to a certificate:
//
//	C = SHA-256(fingerprint || nonce)
//
// The commitment hides the certificate only as long as the nonce is secret
// and has enough entropy, and binds it as long as the nonce is never reused.
// This package does not generate nonces. Callers must draw a fresh, secret,
// high entropy nonce for every commitment (for example 32 bytes from
// crypto/rand, hex encoded) and reveal it only together with the record.
package commitment

import (
	"crypto/subtle"

	"github.com/vocdoni/zkcert/certificate"
)

// Commitment is the hex encoded commitment digest.
type Commitment string

// Commit returns the commitment to record under nonce.
func Commit(record *certificate.Record, nonce string) (Commitment, error) {
	fp, err := record.Fingerprint()
	if err != nil {
		return "", err
	}
	return Commitment(certificate.HashText(string(fp) + nonce).Hex()), nil
}

// Verify recomputes the commitment from the revealed record and nonce. A
// record that cannot be encoded does not open any commitment.
func Verify(c Commitment, record *certificate.Record, nonce string) bool {
	expected, err := Commit(record, nonce)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c), []byte(expected)) == 1
}
