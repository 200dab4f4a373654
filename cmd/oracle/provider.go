package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sealtrust/nautilus-oracle/cryptoutils"
	"github.com/urfave/cli/v2"
)

var AttestationProviderFlag = &cli.StringFlag{
	Name:    "attestation-provider",
	Value:   "nitro",
	Usage:   "hardware attestation provider: 'nitro', 'tdx', 'remote' or 'dummy' (development only)",
	EnvVars: []string{"ORACLE_ATTESTATION_PROVIDER"},
}
var RemoteAttestationAddrFlag = &cli.StringFlag{
	Name:    "remote-attestation-addr",
	Usage:   "base URL of the quote service used by the 'remote' provider",
	EnvVars: []string{"ORACLE_REMOTE_ATTESTATION_ADDR"},
}

// SetupAttestationProvider selects the hardware provider named by the
// attestation-provider flag.
func SetupAttestationProvider(cCtx *cli.Context, logger *slog.Logger) (cryptoutils.AttestationProvider, error) {
	providerType := cCtx.String(AttestationProviderFlag.Name)

	switch providerType {
	case "nitro":
		logger.Info("Using AWS Nitro attestation")
		return &cryptoutils.NitroAttestationProvider{}, nil
	case "tdx", cryptoutils.DCAPAttestation.StringID:
		logger.Info("Using Intel TDX attestation")
		return &cryptoutils.DCAPAttestationProvider{}, nil
	case "remote":
		addr := cCtx.String(RemoteAttestationAddrFlag.Name)
		if addr == "" {
			return nil, fmt.Errorf("remote-attestation-addr is required for the remote provider")
		}
		logger.Info("Using remote attestation", "address", addr)
		return &cryptoutils.RemoteAttestationProvider{Address: addr, Client: http.DefaultClient}, nil
	case "dummy":
		logger.Warn("Using dummy attestation, documents are not backed by hardware")
		provider, err := cryptoutils.NewDummyAttestationProvider()
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("invalid attestation-provider: %s", providerType)
	}
}
