package commands

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/muzzy-dev/muzzy/internal/config"
	"github.com/muzzy-dev/muzzy/internal/importer"
	"github.com/muzzy-dev/muzzy/internal/logger"
	"github.com/muzzy-dev/muzzy/internal/server"
	"github.com/muzzy-dev/muzzy/internal/store"
)

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the import HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "muzzy.yaml", "path to muzzy.yaml")

	return cmd
}

func runServe(configPath string) error {
	// A missing .env is fine; environment beats file values either way.
	_ = godotenv.Load()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if addr := os.Getenv("MUZZY_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if dir := os.Getenv("MUZZY_UPLOAD_DIR"); dir != "" {
		cfg.Upload.Dir = dir
	}

	threshold, err := decimal.NewFromString(cfg.Import.LargeAmountThreshold)
	if err != nil {
		return fmt.Errorf("invalid large_amount_threshold %q: %w", cfg.Import.LargeAmountThreshold, err)
	}

	log := logger.New()

	st := store.New()
	imp := importer.New(st, importer.Options{
		UploadDir:            cfg.Upload.Dir,
		AuditLogDir:          cfg.Import.AuditLogDir,
		LargeAmountThreshold: threshold,
		CategoryRules:        cfg.Categories,
		Logger:               log,
	})
	srv := server.New(imp, st, cfg.Upload.MaxBytes, log)

	log.Info().Str("addr", cfg.Server.Addr).Msg("listening")
	if err := http.ListenAndServe(cfg.Server.Addr, srv.Handler()); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

// loadConfig reads the config file, falling back to defaults when the
// default path does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}
