package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vocdoni/zkcert/certificate"
	"github.com/vocdoni/zkcert/commitment"
	"github.com/vocdoni/zkcert/internal/config"
)

func TestReadRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "title": "BSc CS",
  "description": "Honours",
  "issuer": "issuer-1",
  "holder": "holder-1",
  "metadata": {"gpa": "3.8", "id": 9007199254740993},
  "timestamp": 1700000000
}`), 0o600))

	record, err := readRecord(path)
	require.NoError(t, err)
	meta, err := record.FieldText(certificate.FieldMetadata)
	require.NoError(t, err)
	require.Equal(t, `{"gpa":"3.8","id":9007199254740992}`, meta)
	require.Equal(t, int64(1700000000), record.Timestamp)
}

func TestCommitCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "record.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"title":"BSc CS","holder":"holder-1","timestamp":1}`), 0o600))
	record, err := readRecord(path)
	require.NoError(t, err)
	c, err := commitment.Commit(record, "n1")
	require.NoError(t, err)

	ctx := context.Background()
	cfg := config.Default()
	require.NoError(t, runVerifyCommitment(ctx, cfg, []string{"-record", path, "-nonce", "n1", "-commitment", string(c)}))
	require.ErrorIs(t, runVerifyCommitment(ctx, cfg, []string{"-record", path, "-nonce", "n2", "-commitment", string(c)}), errInvalid)
	require.Error(t, runCommit(ctx, cfg, []string{"-record", path}))
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, writeJSON(path, map[string]int{"a": 1}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]int
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, 1, out["a"])
}

func TestUnknownVerifier(t *testing.T) {
	_, err := newCoordinator(context.Background(), config.Default(), false, "snarkjs")
	require.Error(t, err)
}
