// Command switchroom-clear-expired runs one expiry sweep using
// message_expiry_days from config, then exits.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/umpyre-code/switchroom/config"
	"github.com/umpyre-code/switchroom/logging"
	"github.com/umpyre-code/switchroom/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "switchroom-clear-expired",
		Short: "Run one expiry sweep and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = config.Path()
			}
			return sweep(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to Switchroom.toml (defaults to SWITCHROOM_TOML env or ./Switchroom.toml)")
	return cmd
}

func sweep(configPath string) error {
	log, err := logging.New(false)
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

	cleared, err := engine.ClearExpired(int(cfg.MessageExpiryDays), time.Now())
	if err != nil {
		return fmt.Errorf("clear expired: %w", err)
	}
	log.Info("expiry sweep complete", zap.Int("entries_cleared", cleared))
	return nil
}
