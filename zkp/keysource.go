package zkp

import (
	"context"
	"fmt"
	"os"
)

// KeySource fetches the SnarkJS verification_key.json document.
type KeySource interface {
	LoadVerificationKey(ctx context.Context) ([]byte, error)
}

// FileKeySource reads the key from a file path.
type FileKeySource string

func (p FileKeySource) LoadVerificationKey(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(string(p))
	if err != nil {
		return nil, fmt.Errorf("failed to read verification key: %w", err)
	}
	return data, nil
}

// BytesKeySource serves an in-memory key.
type BytesKeySource []byte

func (b BytesKeySource) LoadVerificationKey(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b, nil
}
