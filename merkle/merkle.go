// Package merkle builds the binary Merkle tree that commits to the fields of
// a certificate. Sibling pairs are sorted before hashing, so a parent is
// SHA-256(min(a,b) || max(a,b)) and inclusion proofs can be checked without
// knowing on which side each sibling sits. A trailing odd node is carried up
// to the next level unchanged.
//
// Because sides are not hashed, a path proves that a value is one of the
// leaves but not which one: leaves whose paths have the same length are
// interchangeable. Only the path length ties a proof to a leaf index.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/vocdoni/zkcert/certificate"
)

// Position tells on which side of the path node a sibling sits. It is
// informational: Verify ignores it and the root does not authenticate it.
type Position string

const (
	Left  Position = "left"
	Right Position = "right"
)

// Step is one sibling on the path from a leaf to the root.
type Step struct {
	Position Position `json:"position"`
	Data     string   `json:"data"`
}

// Tree holds every level of the tree, leaves first.
type Tree struct {
	layers [][]certificate.Digest
}

// New builds a tree over the given leaf digests.
func New(leaves []certificate.Digest) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("merkle tree needs at least one leaf")
	}
	layer := make([]certificate.Digest, len(leaves))
	copy(layer, leaves)
	t := &Tree{layers: [][]certificate.Digest{layer}}
	for len(layer) > 1 {
		next := make([]certificate.Digest, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			if i+1 == len(layer) {
				next = append(next, layer[i])
				continue
			}
			next = append(next, combine(layer[i], layer[i+1]))
		}
		layer = next
		t.layers = append(t.layers, layer)
	}
	return t, nil
}

// ForRecord builds the six-leaf tree of a record, leaves in canonical field
// order.
func ForRecord(r *certificate.Record) (*Tree, []certificate.Leaf, error) {
	leaves, err := r.Leaves()
	if err != nil {
		return nil, nil, err
	}
	digests := make([]certificate.Digest, len(leaves))
	for i, l := range leaves {
		digests[i] = l.Value
	}
	t, err := New(digests)
	if err != nil {
		return nil, nil, err
	}
	return t, leaves, nil
}

// Root returns the root digest.
func (t *Tree) Root() certificate.Digest {
	return t.layers[len(t.layers)-1][0]
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return len(t.layers[0])
}

// Leaf returns the digest at index.
func (t *Tree) Leaf(index int) (certificate.Digest, error) {
	if index < 0 || index >= t.Len() {
		return certificate.Digest{}, fmt.Errorf("leaf index %d out of range [0,%d)", index, t.Len())
	}
	return t.layers[0][index], nil
}

// Proof returns the sibling chain of the leaf at index, from the leaf up to
// the root.
func (t *Tree) Proof(index int) ([]Step, error) {
	if index < 0 || index >= t.Len() {
		return nil, fmt.Errorf("leaf index %d out of range [0,%d)", index, t.Len())
	}
	path := make([]Step, 0, len(t.layers)-1)
	idx := index
	for _, row := range t.layers[:len(t.layers)-1] {
		sibling := idx ^ 1
		if sibling < len(row) {
			pos := Right
			if idx%2 == 1 {
				pos = Left
			}
			path = append(path, Step{Position: pos, Data: row[sibling].Hex()})
		}
		idx /= 2
	}
	return path, nil
}

// Verify folds the path over leaf and reports whether it reaches root. A path
// with undecodable digests is simply invalid.
func Verify(path []Step, leaf, root certificate.Digest) bool {
	node := leaf
	for _, step := range path {
		sibling, err := certificate.ParseDigest(step.Data)
		if err != nil {
			return false
		}
		node = combine(node, sibling)
	}
	return node == root
}

// ProofLength returns the number of steps in the inclusion path of the leaf at
// index in a tree of n leaves, or -1 if index is out of range. Leaves that are
// carried up as odd nodes have shorter paths than their neighbours.
func ProofLength(n, index int) int {
	if index < 0 || index >= n {
		return -1
	}
	length := 0
	for width, idx := n, index; width > 1; width, idx = (width+1)/2, idx/2 {
		if idx^1 < width {
			length++
		}
	}
	return length
}

// RootHex is a convenience for callers carrying roots as text.
func (t *Tree) RootHex() string {
	return t.Root().Hex()
}

func combine(a, b certificate.Digest) certificate.Digest {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	h := sha256.New()
	h.Write(a[:])
	h.Write(b[:])
	var out certificate.Digest
	copy(out[:], h.Sum(nil))
	return out
}
