package zkp

import (
	"context"
	"fmt"

	"github.com/vocdoni/zkcert/certificate"
	"github.com/vocdoni/zkcert/field"
	"github.com/vocdoni/zkcert/merkle"
)

// GenerateSelectiveDisclosureProof proves the full record and reveals only
// the requested fields, each with its inclusion path in the record's Merkle
// tree. Duplicates are ignored and proofs come out in canonical field order.
func (c *Coordinator) GenerateSelectiveDisclosureProof(ctx context.Context, record *certificate.Record, fields []certificate.FieldID, issuerSecret string) (*DisclosureBundle, error) {
	var selected [certificate.NumFields]bool
	for _, id := range fields {
		if !id.Valid() {
			return nil, fmt.Errorf("%w: %d", certificate.ErrUnknownField, int(id))
		}
		selected[id.Index()] = true
	}
	if record == nil {
		return nil, fmt.Errorf("%w: nil record", certificate.ErrEncoding)
	}

	tree, _, err := merkle.ForRecord(record)
	if err != nil {
		return nil, err
	}
	proof, err := c.GenerateProof(ctx, record, issuerSecret, c.defaultSalt)
	if err != nil {
		return nil, err
	}

	bundle := &DisclosureBundle{
		Proof:           proof,
		DisclosedFields: make(map[certificate.FieldID]string),
		MerkleProofs:    []FieldProof{},
	}
	root := tree.RootHex()
	for _, id := range certificate.Fields() {
		if !selected[id.Index()] {
			continue
		}
		value, err := record.FieldText(id)
		if err != nil {
			return nil, err
		}
		path, err := tree.Proof(id.Index())
		if err != nil {
			return nil, err
		}
		bundle.DisclosedFields[id] = value
		bundle.MerkleProofs = append(bundle.MerkleProofs, FieldProof{
			Field: id,
			Value: value,
			Proof: path,
			Root:  root,
		})
	}
	c.log.Debug().Int("disclosed", len(bundle.MerkleProofs)).Msg("selective disclosure generated")
	return bundle, nil
}

// VerifySelectiveDisclosureProof verifies the main proof and then every
// disclosed field against the fields root committed in its public signals.
//
// A valid result proves each disclosed value is a leaf of the committed
// record. It does not prove which field a value belongs to when two fields
// share a path length: title, description, issuer and holder are
// interchangeable, as are metadata and timestamp.
func (c *Coordinator) VerifySelectiveDisclosureProof(ctx context.Context, bundle *DisclosureBundle) (bool, error) {
	if c.vk.Load() == nil {
		return false, ErrUninitialized
	}
	if bundle == nil || bundle.Proof == nil {
		return false, nil
	}
	ok, err := c.VerifyBundle(ctx, bundle.Proof, "")
	if err != nil || !ok {
		return false, err
	}

	signals := bundle.Proof.PublicSignals
	if len(signals) <= SignalFieldsRoot {
		return false, nil
	}
	committedRoot, err := field.Parse(signals[SignalFieldsRoot])
	if err != nil {
		return false, nil
	}
	if len(bundle.MerkleProofs) != len(bundle.DisclosedFields) {
		return false, nil
	}

	var seen [certificate.NumFields]bool
	for _, fp := range bundle.MerkleProofs {
		if !fp.Field.Valid() || seen[fp.Field.Index()] {
			return false, nil
		}
		seen[fp.Field.Index()] = true

		if disclosed, ok := bundle.DisclosedFields[fp.Field]; !ok || disclosed != fp.Value {
			return false, nil
		}
		rootElem := field.FromText(fp.Root)
		if !rootElem.Equal(&committedRoot) {
			return false, nil
		}
		root, err := certificate.ParseDigest(fp.Root)
		if err != nil {
			return false, nil
		}
		// Sibling sides are not committed, so the length is all that ties a
		// path to the field it claims.
		if len(fp.Proof) != merkle.ProofLength(certificate.NumFields, fp.Field.Index()) {
			return false, nil
		}
		if !merkle.Verify(fp.Proof, certificate.HashText(fp.Value), root) {
			c.log.Debug().Stringer("field", fp.Field).Msg("disclosed field is not included in the record")
			return false, nil
		}
	}
	return true, nil
}
