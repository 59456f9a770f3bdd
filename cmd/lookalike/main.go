package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/viant/lookalike/config"
)

var (
	cfg    *config.Config
	logger = slog.New(slog.DiscardHandler)

	rootCmd = &cobra.Command{
		Use:           "lookalike",
		Short:         "Index face embeddings of named entities and rank their closest lookalikes.",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// a missing .env is fine
			_ = godotenv.Load()
			loaded, err := config.Load(viper.GetViper(), viper.GetString("config"))
			if err != nil {
				return err
			}
			cfg = loaded
			logger = cfg.Log.NewLogger(cmd.ErrOrStderr())
			slog.SetDefault(logger)
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().String("snapshot", "lookalike.lksnap", "embedding snapshot file")
	rootCmd.PersistentFlags().String("dsn", "", "SQLite database holding embeddings; overrides --snapshot when set")
	rootCmd.PersistentFlags().String("crops", "", "directory of cropped face images")

	bindFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	bindFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	bindFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	bindFlag("store.snapshot", rootCmd.PersistentFlags().Lookup("snapshot"))
	bindFlag("store.dsn", rootCmd.PersistentFlags().Lookup("dsn"))
	bindFlag("store.crops_dir", rootCmd.PersistentFlags().Lookup("crops"))

	rootCmd.AddCommand(indexCmd, rankCmd, serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
