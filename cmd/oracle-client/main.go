package main

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/sealtrust/nautilus-oracle/api/oraclehandler"
	"github.com/sealtrust/nautilus-oracle/cryptoutils"
	"github.com/sealtrust/nautilus-oracle/oracle"
	"github.com/urfave/cli/v2"
)

var flags []cli.Flag = []cli.Flag{
	&cli.StringFlag{
		Name:    "oracle-addr",
		Value:   "http://127.0.0.1:3000",
		Usage:   "oracle server address to request",
		EnvVars: []string{"ORACLE_ADDR"},
	},
	&cli.BoolFlag{
		Name:  "attested",
		Value: false,
		Usage: "fetch and verify the attestation first and require signed responses to use the attested key",
	},
	&cli.StringFlag{
		Name:    "nitro-root",
		Usage:   "PEM file with the AWS Nitro root certificate; without it Nitro certificate chains are not checked",
		EnvVars: []string{"ORACLE_NITRO_ROOT"},
	},
	&cli.DurationFlag{
		Name:  "timeout",
		Value: 2 * time.Minute,
		Usage: "overall request timeout",
	},
}

func main() {
	app := &cli.App{
		Name:  "oracle-client",
		Usage: "Request and verify signed dataset claims from the oracle",
		Flags: flags,
		Commands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "print the oracle public key and upstream status",
				Action: healthCmd,
			},
			{
				Name:   "attestation",
				Usage:  "fetch the attestation document and check that it binds the oracle key",
				Action: attestationCmd,
			},
			{
				Name:  "process-data",
				Usage: "fetch, hash and sign a dataset",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Required: true, Usage: "dataset URL"},
					&cli.StringFlag{Name: "expected-hash", Usage: "hex SHA-256 the content must match"},
					&cli.StringFlag{Name: "format", Value: "CSV"},
					&cli.StringFlag{Name: "schema-version", Value: "v1.0"},
				},
				Action: processDataCmd,
			},
			{
				Name:      "verify-metadata",
				Usage:     "sign a metadata claim read from a JSON file ('-' for stdin)",
				ArgsUsage: "<claim.json>",
				Action:    verifyMetadataCmd,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func requestContext(cCtx *cli.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cCtx.Context, cCtx.Duration("timeout"))
}

func newClient(ctx context.Context, cCtx *cli.Context) (*oraclehandler.Client, error) {
	client := oraclehandler.NewClient(cCtx.String("oracle-addr"))
	if !cCtx.Bool("attested") {
		return client, nil
	}

	doc, err := client.GetAttestation(ctx)
	if err != nil {
		return nil, fmt.Errorf("attestation request failed: %w", err)
	}
	if err := verifyAttestation(cCtx, doc); err != nil {
		return nil, fmt.Errorf("attestation verification failed: %w", err)
	}
	client.PinnedKey = ed25519.PublicKey(doc.PublicKey)
	return client, nil
}

func healthCmd(cCtx *cli.Context) error {
	ctx, cancel := requestContext(cCtx)
	defer cancel()

	client := oraclehandler.NewClient(cCtx.String("oracle-addr"))
	health, err := client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return printJSON(health)
}

func attestationCmd(cCtx *cli.Context) error {
	ctx, cancel := requestContext(cCtx)
	defer cancel()

	client := oraclehandler.NewClient(cCtx.String("oracle-addr"))
	doc, err := client.GetAttestation(ctx)
	if err != nil {
		return fmt.Errorf("attestation request failed: %w", err)
	}
	if err := verifyAttestation(cCtx, doc); err != nil {
		return fmt.Errorf("attestation verification failed: %w", err)
	}
	return printJSON(doc)
}

func processDataCmd(cCtx *cli.Context) error {
	ctx, cancel := requestContext(cCtx)
	defer cancel()

	client, err := newClient(ctx, cCtx)
	if err != nil {
		return err
	}

	req := oracle.DatasetRequest{
		DatasetURL:    cCtx.String("url"),
		Format:        cCtx.String("format"),
		SchemaVersion: cCtx.String("schema-version"),
	}
	if cCtx.IsSet("expected-hash") {
		expected := cCtx.String("expected-hash")
		req.ExpectedHash = &expected
	}

	resp, err := client.ProcessData(ctx, req)
	if err != nil {
		return fmt.Errorf("process-data request failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "signing payload: %s\n", hex.EncodeToString(resp.SigningPayload()))
	return printJSON(resp)
}

func verifyMetadataCmd(cCtx *cli.Context) error {
	if cCtx.NArg() != 1 {
		return fmt.Errorf("expected exactly one claim file")
	}

	var raw []byte
	var err error
	if path := cCtx.Args().First(); path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("could not read claim: %w", err)
	}

	var claim oracle.MetadataRequest
	if err := json.Unmarshal(raw, &claim); err != nil {
		return fmt.Errorf("could not parse claim: %w", err)
	}
	if missing := claim.MissingFields(); len(missing) > 0 {
		return fmt.Errorf("claim is missing required fields: %v", missing)
	}

	ctx, cancel := requestContext(cCtx)
	defer cancel()

	client, err := newClient(ctx, cCtx)
	if err != nil {
		return err
	}

	resp, err := client.VerifyMetadata(ctx, claim)
	if err != nil {
		return fmt.Errorf("verify-metadata request failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "signing payload: %s\n", hex.EncodeToString(resp.SigningPayload()))
	return printJSON(resp)
}

func loadRoots(path string) (*x509.CertPool, error) {
	if path == "" {
		return nil, nil
	}
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates in %s", path)
	}
	return pool, nil
}

// verifyAttestation checks the document signature and that the document
// commits to the key it was returned with.
func verifyAttestation(cCtx *cli.Context, doc *cryptoutils.AttestationDocument) error {
	attestationType, err := cryptoutils.AttestationTypeFromString(doc.Type)
	if err != nil {
		return fmt.Errorf("unsupported attestation type %q", doc.Type)
	}

	switch attestationType {
	case cryptoutils.DCAPAttestation:
		measurements, err := cryptoutils.VerifyDCAPAttestation(ed25519.PublicKey(doc.PublicKey), doc.Document)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "TDX measurements: %v\n", measurements)
		return nil
	case cryptoutils.NitroAttestation, cryptoutils.DummyAttestation:
		var roots *x509.CertPool
		if attestationType == cryptoutils.NitroAttestation {
			roots, err = loadRoots(cCtx.String("nitro-root"))
			if err != nil {
				return fmt.Errorf("loading nitro root: %w", err)
			}
		}

		nitroDoc, err := cryptoutils.VerifyNitroDocument(doc.Document, roots)
		if err != nil {
			return err
		}
		if !bytes.Equal(nitroDoc.PublicKey, doc.PublicKey) {
			return fmt.Errorf("document binds key %x, response claims %x", nitroDoc.PublicKey, []byte(doc.PublicKey))
		}

		switch {
		case attestationType == cryptoutils.DummyAttestation:
			fmt.Fprintln(os.Stderr, "WARNING: dummy attestation, signed by a self-issued certificate and not backed by hardware")
		case roots == nil:
			fmt.Fprintln(os.Stderr, "WARNING: document signature checked but certificate chain unverified, pass --nitro-root")
		}
		for idx, pcr := range nitroDoc.PCRs {
			fmt.Fprintf(os.Stderr, "PCR%d: %x\n", idx, pcr)
		}
		return nil
	default:
		return fmt.Errorf("unsupported attestation type %q", doc.Type)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
