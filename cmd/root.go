package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/plmview-cli/internal/config"
	"github.com/KaramelBytes/plmview-cli/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration and logger, set before any subcommand runs
	cfg    *cfgpkg.Global
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "plmview",
	Short:         "PLM viewer: summarise PLM spreadsheet exports",
	Long:          `plmview loads a PLM Excel export, splits its rows into VOC, MR and other PLMs, and reports how many were analysed, solved, and solved with a CL number.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.plmview/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func setup() error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c

	l, err := logging.New(cfg.LogLevel, debug)
	if err != nil {
		return err
	}
	logger = l
	logger.Debug("config loaded",
		zap.String("config_file", cfgFile),
		zap.String("output_format", cfg.OutputFormat),
		zap.Int("table_rows", cfg.TableRows))
	return nil
}
