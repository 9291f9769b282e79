// Command zkcert sets up the certificate circuit, proves certificates,
// builds selective disclosures and commitments, and verifies all of them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/consensys/gnark/logger"
	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/vocdoni/zkcert/internal/config"
)

// errInvalid reports a negative verification verdict; it maps to exit code 1
// without an error message.
var errInvalid = errors.New("invalid")

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, cfg *config.Config, args []string) error
}

var commands = []command{
	{"setup", "compile the circuit and write Groth16 artifacts", runSetup},
	{"fingerprint", "print the fingerprint of a certificate record", runFingerprint},
	{"prove", "generate a proof bundle for a certificate record", runProve},
	{"verify", "verify a proof bundle", runVerify},
	{"disclose", "generate a selective disclosure bundle", runDisclose},
	{"verify-disclosure", "verify a selective disclosure bundle", runVerifyDisclosure},
	{"commit", "commit to a certificate record with a nonce", runCommit},
	{"verify-commitment", "check a commitment against a record and nonce", runVerifyCommitment},
	{"issue", "prepare the ledger submission for an issuance request", runIssue},
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: zkcert [-config file] <command> [flags]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-18s %s\n", c.name, c.usage)
	}
}

func main() {
	configPath := flag.String("config", "zkcert.yaml", "configuration file")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	setupLogger(cfg)

	name := flag.Arg(0)
	for _, c := range commands {
		if c.name != name {
			continue
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		err := c.run(ctx, cfg, flag.Args()[1:])
		cancel()
		switch {
		case errors.Is(err, errInvalid):
			os.Exit(1)
		case errors.Is(err, flag.ErrHelp):
			os.Exit(2)
		case err != nil:
			color.Red("%s: %v", name, err)
			os.Exit(2)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "unknown command %q\n", name)
	usage()
	os.Exit(2)
}

func setupLogger(cfg *config.Config) {
	level, _ := cfg.Level()
	var l zerolog.Logger
	if cfg.Log.Console {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	} else {
		l = zerolog.New(os.Stderr)
	}
	logger.Set(l.Level(level).With().Timestamp().Logger())
}
