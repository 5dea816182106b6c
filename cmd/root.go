package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"RaspCD/config"
	"RaspCD/logger"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "raspcd",
	Short: "RaspCD is a CD jukebox controller for the Raspberry Pi.",
	Long: `RaspCD watches the optical drive, identifies inserted audio CDs against
MusicBrainz, plays them through mpv or MPD and pushes the player status to
browsers over a websocket.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFile, "key/value configuration file")
}

// loadConfig reads the configuration and initialises the logger from it.
func loadConfig() (*config.Config, error) {
	cfg := config.Load(configPath)
	err := logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

// Execute executes the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
