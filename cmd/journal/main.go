package main

import (
	"os"

	"github.com/dfryer1193/journal/internal/config"
	"github.com/dfryer1193/journal/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		cfg        config.Config
	)

	rootCmd := &cobra.Command{
		Use:           "journal",
		Short:         "Write and sync journal posts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = os.Getenv("JOURNAL_CONFIG")
			}
			loaded, err := config.LoadFrom(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				loaded.Log.Level = logLevel
			}
			if err := logging.Setup(loaded.Log.Level, loaded.Log.Format, cmd.ErrOrStderr()); err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (or set JOURNAL_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level, overrides the config")

	cfgFn := func() config.Config { return cfg }
	rootCmd.AddCommand(
		newServeCmd(cfgFn),
		newListCmd(cfgFn),
		newShowCmd(cfgFn),
		newAddCmd(cfgFn),
		newClearCmd(cfgFn),
		newExportCmd(cfgFn),
		newImportCmd(cfgFn),
		newRemoteCmd(cfgFn),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
