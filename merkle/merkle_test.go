package merkle

import (
	"testing"

	"github.com/vocdoni/zkcert/certificate"
)

func testRecord() *certificate.Record {
	return &certificate.Record{
		Title:       "BSc CS",
		Description: "Honours",
		Issuer:      "issuer-1",
		Holder:      "holder-1",
		Metadata:    map[string]any{"gpa": "3.8"},
		Timestamp:   1700000000,
	}
}

func TestForRecordRoot(t *testing.T) {
	tree, leaves, err := ForRecord(testRecord())
	if err != nil {
		t.Fatal(err)
	}
	if len(leaves) != certificate.NumFields || tree.Len() != certificate.NumFields {
		t.Fatalf("want %d leaves, got %d / %d", certificate.NumFields, len(leaves), tree.Len())
	}
	const want = "4110a699f9830b22a7a7a381ccce2e24d0031434cc938f8706a1bff5372d2e6c"
	if got := tree.RootHex(); got != want {
		t.Fatalf("root = %s, want %s", got, want)
	}
}

func TestInclusionRoundTrip(t *testing.T) {
	tree, leaves, err := ForRecord(testRecord())
	if err != nil {
		t.Fatal(err)
	}
	root := tree.Root()
	for _, leaf := range leaves {
		path, err := tree.Proof(leaf.Field.Index())
		if err != nil {
			t.Fatal(err)
		}
		if want := ProofLength(tree.Len(), leaf.Field.Index()); len(path) != want {
			t.Errorf("%s: path length %d, want %d", leaf.Field, len(path), want)
		}
		if !Verify(path, leaf.Value, root) {
			t.Errorf("%s: valid inclusion proof rejected", leaf.Field)
		}
		for i := range leaf.Value {
			tampered := leaf.Value
			tampered[i] ^= 0x01
			if Verify(path, tampered, root) {
				t.Fatalf("%s: tampered leaf (byte %d) accepted", leaf.Field, i)
			}
		}
	}
}

func TestProofLength(t *testing.T) {
	want := []int{3, 3, 3, 3, 2, 2}
	for i, w := range want {
		if got := ProofLength(certificate.NumFields, i); got != w {
			t.Errorf("ProofLength(6, %d) = %d, want %d", i, got, w)
		}
	}
	if ProofLength(6, 6) != -1 || ProofLength(6, -1) != -1 {
		t.Error("out of range index must yield -1")
	}
	if ProofLength(1, 0) != 0 {
		t.Error("single leaf tree has an empty path")
	}
}

func TestTreeSizes(t *testing.T) {
	for n := 1; n <= 9; n++ {
		leaves := make([]certificate.Digest, n)
		for i := range leaves {
			leaves[i] = certificate.HashText(string(rune('a' + i)))
		}
		tree, err := New(leaves)
		if err != nil {
			t.Fatal(err)
		}
		for i := range leaves {
			path, err := tree.Proof(i)
			if err != nil {
				t.Fatal(err)
			}
			if len(path) != ProofLength(n, i) {
				t.Errorf("n=%d i=%d: path length %d, want %d", n, i, len(path), ProofLength(n, i))
			}
			if !Verify(path, leaves[i], tree.Root()) {
				t.Errorf("n=%d i=%d: inclusion rejected", n, i)
			}
		}
	}
}

func TestCombineIsCommutative(t *testing.T) {
	a, b := certificate.HashText("a"), certificate.HashText("b")
	if combine(a, b) != combine(b, a) {
		t.Fatal("combine must not depend on argument order")
	}
}

func TestPositionsIgnored(t *testing.T) {
	tree, leaves, err := ForRecord(testRecord())
	if err != nil {
		t.Fatal(err)
	}
	path, err := tree.Proof(0)
	if err != nil {
		t.Fatal(err)
	}
	for i := range path {
		if path[i].Position == Left {
			path[i].Position = Right
		} else {
			path[i].Position = Left
		}
	}
	if !Verify(path, leaves[0].Value, tree.Root()) {
		t.Fatal("sorted-pair proofs must verify regardless of positions")
	}
}

func TestMalformedPath(t *testing.T) {
	tree, leaves, err := ForRecord(testRecord())
	if err != nil {
		t.Fatal(err)
	}
	path, err := tree.Proof(1)
	if err != nil {
		t.Fatal(err)
	}
	path[0].Data = "not-hex"
	if Verify(path, leaves[1].Value, tree.Root()) {
		t.Fatal("undecodable sibling accepted")
	}
	if Verify(nil, leaves[1].Value, tree.Root()) {
		t.Fatal("empty path accepted for a multi-leaf tree")
	}
}

func TestErrors(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("empty tree must be rejected")
	}
	tree, _, err := ForRecord(testRecord())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tree.Proof(6); err == nil {
		t.Fatal("out of range proof must fail")
	}
	if _, err := tree.Leaf(-1); err == nil {
		t.Fatal("out of range leaf must fail")
	}
}

func TestPathLengthClasses(t *testing.T) {
	tree, _, err := ForRecord(testRecord())
	if err != nil {
		t.Fatal(err)
	}
	root := tree.Root()
	// A path verifies for any leaf value in the tree, so relabelling its
	// sides lets one leaf stand in for another of the same path length.
	issuer, _ := tree.Leaf(2)
	path, err := tree.Proof(2)
	if err != nil {
		t.Fatal(err)
	}
	path[0].Position = Left
	if len(path) != ProofLength(tree.Len(), 3) {
		t.Fatalf("issuer and holder paths differ in length")
	}
	if !Verify(path, issuer, root) {
		t.Fatal("relabelled path must still verify")
	}
	if len(path) == ProofLength(tree.Len(), 4) {
		t.Fatal("metadata path must be shorter than issuer path")
	}
}
