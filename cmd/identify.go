package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"RaspCD/cache"
	"RaspCD/core/disc"
	"RaspCD/logger"

	"github.com/spf13/cobra"
)

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "识别光驱中的光盘并输出 JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cache.Enabled(cfg) {
			if err := cache.ConnectRedis(cfg); err != nil {
				logger.Warn("Redis unavailable, lookup cache disabled", logger.ErrorField(err))
			} else {
				defer cache.CloseRedis()
			}
		}

		d, err := newReader(cfg, newMusicBrainz(cfg)).Identify(cmd.Context())
		if err != nil && errors.Is(err, disc.ErrDeviceAbsent) {
			return fmt.Errorf("no disc in %s: %w", cfg.CDDevice, err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(d); encErr != nil {
			return encErr
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(identifyCmd)
}
