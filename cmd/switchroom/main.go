// Command switchroom runs the relay's gRPC server: it loads config, opens
// the storage engine, optionally starts the metrics exporter, and serves
// the Switchroom RPC surface over mutual TLS until signaled to stop.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/umpyre-code/switchroom/config"
	"github.com/umpyre-code/switchroom/logging"
	"github.com/umpyre-code/switchroom/metrics"
	"github.com/umpyre-code/switchroom/rpcsvc"
	"github.com/umpyre-code/switchroom/rpcwire"
	"github.com/umpyre-code/switchroom/storage"
	"github.com/umpyre-code/switchroom/tlsconfig"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var dev bool

	cmd := &cobra.Command{
		Use:   "switchroom",
		Short: "Run the switchroom message relay server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = config.Path()
			}
			return serve(configPath, dev)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to Switchroom.toml (defaults to SWITCHROOM_TOML env or ./Switchroom.toml)")
	cmd.Flags().BoolVar(&dev, "dev", false, "use a human-readable development logger")
	return cmd
}

func serve(configPath string, dev bool) error {
	log, err := logging.New(dev)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", configPath, err)
	}

	engine, err := storage.Open(cfg.StoragePath, 5*time.Second)
	if err != nil {
		return fmt.Errorf("open storage %s: %w", cfg.StoragePath, err)
	}
	defer engine.Close()

	creds, err := tlsconfig.Credentials(cfg.Service.CACertPath, cfg.Service.TLSCertPath, cfg.Service.TLSKeyPath)
	if err != nil {
		return fmt.Errorf("load tls credentials: %w", err)
	}

	server := grpc.NewServer(
		grpc.Creds(creds),
		grpc.ForceServerCodec(rpcwire.Codec{}),
		grpc.UnaryInterceptor(rpcwire.BoundedConcurrencyInterceptor(cfg.Service.WorkerThreads)),
	)
	rpcwire.RegisterSwitchroomServer(server, rpcsvc.New(engine, log))

	lis, err := net.Listen("tcp", cfg.Service.BindToAddress)
	if err != nil {
		return fmt.Errorf("bind %s: %w", cfg.Service.BindToAddress, err)
	}
	log.Info("switchroom listening", zap.String("address", cfg.Service.BindToAddress))

	var metricsServer *metrics.Server
	if !config.InstrumentedDisabled() {
		metricsServer = metrics.NewServer(cfg.Metrics.BindToAddress, log)
		go func() {
			if err := metricsServer.Serve(); err != nil {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(lis) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-sigCh:
		log.Info("shutting down")
		server.GracefulStop()
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metricsServer.Shutdown(ctx)
		}
	}
	return nil
}
