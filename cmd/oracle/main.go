package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sealtrust/nautilus-oracle/api/oraclehandler"
	"github.com/sealtrust/nautilus-oracle/api/server"
	"github.com/sealtrust/nautilus-oracle/attestation"
	"github.com/sealtrust/nautilus-oracle/cmd/flags"
	"github.com/sealtrust/nautilus-oracle/common"
	"github.com/sealtrust/nautilus-oracle/ephemeral"
	"github.com/sealtrust/nautilus-oracle/fetch"
	"github.com/sealtrust/nautilus-oracle/metrics"
	"github.com/sealtrust/nautilus-oracle/oracle"
	"github.com/urfave/cli/v2"
)

var OracleServiceLogFlag = flags.LogServiceFlagFn(common.PackageName)

var ListenAddrFlag = &cli.StringFlag{
	Name:    "listen-addr",
	Value:   "127.0.0.1:3000",
	Usage:   "address to listen on for API",
	EnvVars: []string{"ORACLE_LISTEN_ADDR"},
}
var AttestationTimeoutFlag = &cli.DurationFlag{
	Name:    "attestation-timeout",
	Value:   attestation.DefaultTimeout,
	Usage:   "maximum time to wait for the hardware attestation provider",
	EnvVars: []string{"ORACLE_ATTESTATION_TIMEOUT"},
}
var FetchTimeoutFlag = &cli.DurationFlag{
	Name:    "fetch-timeout",
	Value:   fetch.DefaultTimeout,
	Usage:   "maximum time to fetch a dataset",
	EnvVars: []string{"ORACLE_FETCH_TIMEOUT"},
}
var FetchMaxBytesFlag = &cli.Int64Flag{
	Name:    "fetch-max-bytes",
	Value:   fetch.DefaultMaxBytes,
	Usage:   "maximum dataset size in bytes; larger datasets are rejected",
	EnvVars: []string{"ORACLE_FETCH_MAX_BYTES"},
}
var AllowFileFetchFlag = &cli.BoolFlag{
	Name:    "allow-file-fetch",
	Value:   false,
	Usage:   "accept file:// dataset URLs (development only)",
	EnvVars: []string{"ORACLE_ALLOW_FILE_FETCH"},
}
var S3RegionFlag = &cli.StringFlag{
	Name:    "s3-region",
	Value:   "us-east-1",
	Usage:   "region for s3:// dataset URLs",
	EnvVars: []string{"ORACLE_S3_REGION"},
}
var S3EndpointFlag = &cli.StringFlag{
	Name:    "s3-endpoint",
	Usage:   "custom S3-compatible endpoint for s3:// dataset URLs",
	EnvVars: []string{"ORACLE_S3_ENDPOINT"},
}
var IPFSAPIFlag = &cli.StringFlag{
	Name:    "ipfs-api",
	Usage:   "IPFS node HTTP API (host:port) for ipfs:// dataset URLs; empty disables ipfs://",
	EnvVars: []string{"ORACLE_IPFS_API"},
}
var HealthEndpointsFlag = &cli.StringSliceFlag{
	Name:    "health-endpoints",
	Usage:   "upstream URLs whose reachability is reported by /health_check",
	EnvVars: []string{"ORACLE_HEALTH_ENDPOINTS"},
}

var OracleFlags = []cli.Flag{
	ListenAddrFlag,
	AttestationProviderFlag,
	RemoteAttestationAddrFlag,
	AttestationTimeoutFlag,
	FetchTimeoutFlag,
	FetchMaxBytesFlag,
	AllowFileFetchFlag,
	S3RegionFlag,
	S3EndpointFlag,
	IPFSAPIFlag,
	HealthEndpointsFlag,
	OracleServiceLogFlag,
}

func main() {
	app := &cli.App{
		Name:  "oracle",
		Usage: "Sign dataset verification claims with an attested ephemeral key",
		Flags: append(OracleFlags, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String(ListenAddrFlag.Name)
			fetchTimeout := cCtx.Duration(FetchTimeoutFlag.Name)

			// Setup logger
			logger := flags.SetupLogger(cCtx)

			// The key must exist before any handler is reachable.
			key, err := ephemeral.New(nil)
			if err != nil {
				logger.Error("Failed to generate ephemeral key", "err", err)
				return err
			}
			logger.Info("Ephemeral key generated", "publicKey", key.PublicKeyHex(), "suiAddress", key.SuiAddress())

			provider, err := SetupAttestationProvider(cCtx, logger)
			if err != nil {
				logger.Error("Failed to set up attestation provider", "err", err)
				return err
			}

			metricsSrv, err := metrics.New(common.MetricsNamespace, cCtx.String(flags.MetricsAddrFlag.Name))
			if err != nil {
				logger.Error("Failed to create metrics server", "err", err)
				return err
			}
			m := metricsSrv.Metrics()

			fetcher := fetch.NewFactory(fetch.Config{
				Timeout:    fetchTimeout,
				MaxBytes:   cCtx.Int64(FetchMaxBytesFlag.Name),
				AllowFile:  cCtx.Bool(AllowFileFetchFlag.Name),
				S3Region:   cCtx.String(S3RegionFlag.Name),
				S3Endpoint: cCtx.String(S3EndpointFlag.Name),
				IPFSAPI:    cCtx.String(IPFSAPIFlag.Name),
			}, logger)

			handler := oraclehandler.NewHandler(
				key,
				oracle.NewContentVerifier(key, fetcher, time.Now, logger, m),
				oracle.NewMetadataVerifier(key, logger, m),
				attestation.NewService(key, provider, cCtx.Duration(AttestationTimeoutFlag.Name), logger, m),
				logger,
				m,
			).WithHealthEndpoints(cCtx.StringSlice(HealthEndpointsFlag.Name))

			cfg := flags.ConfigureServer(cCtx, logger, listenAddr, fetchTimeout)
			cfg.Metrics = metricsSrv

			srv, err := server.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			srv.RunInBackground()

			// Wait for termination signal
			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			srv.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
