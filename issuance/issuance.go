// Package issuance turns an issuer's certificate request into the values
// submitted to the ledger, and checks such submissions.
package issuance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vocdoni/zkcert/certificate"
	"github.com/vocdoni/zkcert/zkp"
)

// DocumentHashKey is the metadata key the document content hash is stored under.
const DocumentHashKey = "documentHash"

// ErrInvalidRequest is returned for requests missing mandatory values.
var ErrInvalidRequest = errors.New("invalid issuance request")

// Request is what an issuer provides to issue a certificate. DocumentHash is
// the content hash returned by the document store, treated as opaque text.
type Request struct {
	HolderID     string `json:"holderId"`
	IssuerID     string `json:"issuerId"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	DocumentHash string `json:"documentHash"`
	Metadata     any    `json:"metadata,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// Submission carries the values the ledger stores for an issued certificate.
type Submission struct {
	HolderID        string           `json:"holderId"`
	IssuerID        string           `json:"issuerId"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	DocumentHash    string           `json:"documentHash"`
	Timestamp       int64            `json:"timestamp"`
	Fingerprint     string           `json:"fingerprint"`
	IssuerPublicKey string           `json:"issuerPublicKey"`
	ProofHash       string           `json:"proofHash"`
	Metadata        string           `json:"metadata"`
	Proof           *zkp.ProofBundle `json:"proof"`
}

// Record rebuilds the certificate record a submission was proved over.
func (s *Submission) Record() *certificate.Record {
	return &certificate.Record{
		Title:       s.Title,
		Description: s.Description,
		Issuer:      s.IssuerID,
		Holder:      s.HolderID,
		Metadata:    json.RawMessage(s.Metadata),
		Timestamp:   s.Timestamp,
	}
}

// Prepare builds the certificate record for req, proves it and returns the
// ledger submission.
func Prepare(ctx context.Context, coord *zkp.Coordinator, req *Request, issuerSecret, salt string) (*Submission, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	switch {
	case req.HolderID == "":
		return nil, fmt.Errorf("%w: missing holder", ErrInvalidRequest)
	case req.Title == "":
		return nil, fmt.Errorf("%w: missing title", ErrInvalidRequest)
	case req.DocumentHash == "":
		return nil, fmt.Errorf("%w: missing document hash", ErrInvalidRequest)
	}
	if salt == "" {
		salt = coord.DefaultSalt()
	}

	metadata, err := foldDocumentHash(req.Metadata, req.DocumentHash)
	if err != nil {
		return nil, err
	}
	record := &certificate.Record{
		Title:       req.Title,
		Description: req.Description,
		Issuer:      req.IssuerID,
		Holder:      req.HolderID,
		Metadata:    json.RawMessage(metadata),
		Timestamp:   req.Timestamp,
	}
	fp, err := record.Fingerprint()
	if err != nil {
		return nil, err
	}
	bundle, err := coord.GenerateProof(ctx, record, issuerSecret, salt)
	if err != nil {
		return nil, err
	}
	return &Submission{
		HolderID:        req.HolderID,
		IssuerID:        req.IssuerID,
		Title:           req.Title,
		Description:     req.Description,
		DocumentHash:    req.DocumentHash,
		Timestamp:       req.Timestamp,
		Fingerprint:     string(fp),
		IssuerPublicKey: zkp.IssuerPublicKey(issuerSecret, salt),
		ProofHash:       bundle.ProofHash,
		Metadata:        string(metadata),
		Proof:           bundle,
	}, nil
}

// Verify checks that the submission's proof is valid for the certificate its
// fields describe.
func Verify(ctx context.Context, coord *zkp.Coordinator, s *Submission) (bool, error) {
	if s == nil || s.Proof == nil || s.Proof.ProofHash != s.ProofHash {
		return false, nil
	}
	fp, err := s.Record().Fingerprint()
	if err != nil || string(fp) != s.Fingerprint {
		return false, nil
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(s.Metadata), &meta); err != nil || meta[DocumentHashKey] != s.DocumentHash {
		return false, nil
	}
	return coord.VerifyBundle(ctx, s.Proof, fp)
}

// foldDocumentHash adds the document hash to a JSON object metadata value and
// returns it in canonical form.
func foldDocumentHash(metadata any, documentHash string) ([]byte, error) {
	raw, err := certificate.CanonicalJSON(metadata)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: metadata must be a JSON object", certificate.ErrEncoding)
	}
	if obj == nil {
		obj = make(map[string]any)
	}
	if prev, ok := obj[DocumentHashKey]; ok && prev != documentHash {
		return nil, fmt.Errorf("%w: metadata %s does not match the document hash", ErrInvalidRequest, DocumentHashKey)
	}
	obj[DocumentHashKey] = documentHash
	return certificate.CanonicalJSON(obj)
}
