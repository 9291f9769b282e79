package commitment

import (
	"testing"

	"github.com/stretchr/testify/require"
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

func TestCommitVerify(t *testing.T) {
	r := testRecord()
	c, err := Commit(r, "nonce-1")
	require.NoError(t, err)
	require.Len(t, string(c), 64)

	// sha256(fingerprint || nonce)
	fp, err := r.Fingerprint()
	require.NoError(t, err)
	require.Equal(t, Commitment(certificate.HashText(string(fp)+"nonce-1").Hex()), c)

	require.True(t, Verify(c, r, "nonce-1"))
	require.False(t, Verify(c, r, "nonce-2"))
	require.False(t, Verify(c, r, ""))
}

func TestVerifyRejectsOtherRecord(t *testing.T) {
	r := testRecord()
	c, err := Commit(r, "nonce-1")
	require.NoError(t, err)

	other := testRecord()
	other.Holder = "holder-2"
	require.False(t, Verify(c, other, "nonce-1"))
}

func TestCommitHides(t *testing.T) {
	r := testRecord()
	c1, err := Commit(r, "a")
	require.NoError(t, err)
	c2, err := Commit(r, "b")
	require.NoError(t, err)
	require.NotEqual(t, c1, c2)
}

func TestEncodingFailure(t *testing.T) {
	r := testRecord()
	r.Metadata = map[string]any{"bad": make(chan int)}
	_, err := Commit(r, "n")
	require.ErrorIs(t, err, certificate.ErrEncoding)
	require.False(t, Verify("00", r, "n"))
}
