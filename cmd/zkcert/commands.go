package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/vocdoni/zkcert/backend"
	"github.com/vocdoni/zkcert/certificate"
	"github.com/vocdoni/zkcert/circuit"
	"github.com/vocdoni/zkcert/commitment"
	"github.com/vocdoni/zkcert/internal/config"
	"github.com/vocdoni/zkcert/issuance"
	"github.com/vocdoni/zkcert/zkp"
)

func runSetup(_ context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	dir := fs.String("dir", cfg.ArtifactsDir, "artifacts output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	artifacts, err := circuit.Setup()
	if err != nil {
		return err
	}
	if err := artifacts.Save(*dir); err != nil {
		return err
	}
	fmt.Printf("circuit artifacts written to %s (%d constraints)\n", *dir, artifacts.CCS.GetNbConstraints())
	return nil
}

func runFingerprint(_ context.Context, _ *config.Config, args []string) error {
	fs := flag.NewFlagSet("fingerprint", flag.ContinueOnError)
	recordPath := fs.String("record", "-", "certificate record JSON file (- for stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	record, err := readRecord(*recordPath)
	if err != nil {
		return err
	}
	fp, err := record.Fingerprint()
	if err != nil {
		return err
	}
	fmt.Println(fp)
	return nil
}

func runProve(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("prove", flag.ContinueOnError)
	recordPath := fs.String("record", "-", "certificate record JSON file (- for stdin)")
	secret := fs.String("secret", os.Getenv("ZKCERT_ISSUER_SECRET"), "issuer secret (default $ZKCERT_ISSUER_SECRET)")
	salt := fs.String("salt", "", "issuer key salt (default from config)")
	out := fs.String("out", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	record, err := readRecord(*recordPath)
	if err != nil {
		return err
	}
	coord, err := newCoordinator(ctx, cfg, true, "")
	if err != nil {
		return err
	}
	bundle, err := coord.GenerateProof(ctx, record, *secret, *salt)
	if err != nil {
		return err
	}
	return writeJSON(*out, bundle)
}

func runVerify(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	bundlePath := fs.String("bundle", "-", "proof bundle JSON file (- for stdin)")
	fingerprint := fs.String("fingerprint", "", "expected certificate fingerprint")
	verifier := fs.String("verifier", "gnark", "verifier backend: gnark or go-snark")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var bundle zkp.ProofBundle
	if err := readJSON(*bundlePath, &bundle); err != nil {
		return err
	}
	coord, err := newCoordinator(ctx, cfg, false, *verifier)
	if err != nil {
		return err
	}
	ok, err := coord.VerifyBundle(ctx, &bundle, certificate.Fingerprint(*fingerprint))
	if err != nil {
		return err
	}
	return verdict(ok)
}

func runDisclose(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("disclose", flag.ContinueOnError)
	recordPath := fs.String("record", "-", "certificate record JSON file (- for stdin)")
	secret := fs.String("secret", os.Getenv("ZKCERT_ISSUER_SECRET"), "issuer secret (default $ZKCERT_ISSUER_SECRET)")
	fieldList := fs.String("fields", "", "comma separated fields to disclose")
	out := fs.String("out", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var names []string
	if *fieldList != "" {
		names = strings.Split(*fieldList, ",")
	}
	fields, err := certificate.ParseFieldIDs(names)
	if err != nil {
		return err
	}
	record, err := readRecord(*recordPath)
	if err != nil {
		return err
	}
	coord, err := newCoordinator(ctx, cfg, true, "")
	if err != nil {
		return err
	}
	bundle, err := coord.GenerateSelectiveDisclosureProof(ctx, record, fields, *secret)
	if err != nil {
		return err
	}
	return writeJSON(*out, bundle)
}

func runVerifyDisclosure(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("verify-disclosure", flag.ContinueOnError)
	bundlePath := fs.String("bundle", "-", "disclosure bundle JSON file (- for stdin)")
	verifier := fs.String("verifier", "gnark", "verifier backend: gnark or go-snark")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var bundle zkp.DisclosureBundle
	if err := readJSON(*bundlePath, &bundle); err != nil {
		return err
	}
	coord, err := newCoordinator(ctx, cfg, false, *verifier)
	if err != nil {
		return err
	}
	ok, err := coord.VerifySelectiveDisclosureProof(ctx, &bundle)
	if err != nil {
		return err
	}
	if ok {
		for _, fp := range bundle.MerkleProofs {
			fmt.Printf("%-12s %s\n", fp.Field, fp.Value)
		}
	}
	return verdict(ok)
}

func runCommit(_ context.Context, _ *config.Config, args []string) error {
	fs := flag.NewFlagSet("commit", flag.ContinueOnError)
	recordPath := fs.String("record", "-", "certificate record JSON file (- for stdin)")
	nonce := fs.String("nonce", "", "commitment nonce; must be secret and unique")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *nonce == "" {
		return fmt.Errorf("a nonce is required")
	}
	record, err := readRecord(*recordPath)
	if err != nil {
		return err
	}
	c, err := commitment.Commit(record, *nonce)
	if err != nil {
		return err
	}
	fmt.Println(c)
	return nil
}

func runVerifyCommitment(_ context.Context, _ *config.Config, args []string) error {
	fs := flag.NewFlagSet("verify-commitment", flag.ContinueOnError)
	recordPath := fs.String("record", "-", "certificate record JSON file (- for stdin)")
	nonce := fs.String("nonce", "", "commitment nonce")
	c := fs.String("commitment", "", "commitment to check")
	if err := fs.Parse(args); err != nil {
		return err
	}
	record, err := readRecord(*recordPath)
	if err != nil {
		return err
	}
	return verdict(commitment.Verify(commitment.Commitment(*c), record, *nonce))
}

func runIssue(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("issue", flag.ContinueOnError)
	requestPath := fs.String("request", "-", "issuance request JSON file (- for stdin)")
	secret := fs.String("secret", os.Getenv("ZKCERT_ISSUER_SECRET"), "issuer secret (default $ZKCERT_ISSUER_SECRET)")
	salt := fs.String("salt", "", "issuer key salt (default from config)")
	out := fs.String("out", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var req issuance.Request
	if err := readJSON(*requestPath, &req); err != nil {
		return err
	}
	coord, err := newCoordinator(ctx, cfg, true, "")
	if err != nil {
		return err
	}
	sub, err := issuance.Prepare(ctx, coord, &req, *secret, *salt)
	if err != nil {
		return err
	}
	return writeJSON(*out, sub)
}

// newCoordinator builds a coordinator for the configured artifacts. The
// prover is only loaded when needed; the verification key is always loaded.
func newCoordinator(ctx context.Context, cfg *config.Config, withProver bool, verifierName string) (*zkp.Coordinator, error) {
	var prover zkp.Prover
	if withProver {
		artifacts, err := circuit.Load(cfg.ArtifactsDir)
		if err != nil {
			return nil, fmt.Errorf("%w (run zkcert setup first)", err)
		}
		prover = backend.NewGroth16Prover(artifacts)
	}

	var verifier zkp.Verifier
	switch verifierName {
	case "", "gnark":
		verifier = backend.NewGroth16Verifier()
	case "go-snark":
		verifier = backend.GoSnarkVerifier{}
	default:
		return nil, fmt.Errorf("unknown verifier %q", verifierName)
	}

	coord := zkp.NewCoordinator(prover, verifier, zkp.WithDefaultSalt(cfg.DefaultSalt))
	if err := coord.Initialize(ctx, zkp.FileKeySource(cfg.VerificationKeyPath())); err != nil {
		return nil, err
	}
	return coord, nil
}

func verdict(ok bool) error {
	if !ok {
		color.Red("INVALID")
		return errInvalid
	}
	color.Green("VALID")
	return nil
}

func readRecord(path string) (*certificate.Record, error) {
	var record certificate.Record
	if err := readJSON(path, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// readJSON decodes the file at path (stdin for "-") into v, keeping numbers
// as json.Number so metadata survives canonicalization unchanged.
func readJSON(path string, v any) error {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec
	}
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("error decoding %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
