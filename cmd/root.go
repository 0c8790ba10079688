package cmd

import (
	"fmt"
	"os"

	"github.com/endorses/pcapview/cmd/convert"
	"github.com/endorses/pcapview/cmd/export"
	"github.com/endorses/pcapview/cmd/list"
	"github.com/endorses/pcapview/cmd/show"
	"github.com/endorses/pcapview/cmd/tui"
	"github.com/endorses/pcapview/internal/pkg/logger"
	"github.com/endorses/pcapview/internal/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pcapview",
		Short: "pcapview reads pcap and pcapng captures",
		Long: `pcapview reads classic pcap and pcapng capture files, dissects every
packet it can frame and prints records, field trees, hex dumps and the
protocols and addresses seen in the capture.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyLogLevel()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/pcapview/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(show.NewCommand())
	root.AddCommand(list.NewCommand())
	root.AddCommand(export.NewCommand())
	root.AddCommand(convert.NewCommand())
	root.AddCommand(tui.NewCommand())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	logger.Initialize()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search order:
		// 1. ~/.config/pcapview/config.yaml
		// 2. ~/.config/pcapview.yaml
		// 3. ~/pcapview.yaml
		viper.AddConfigPath(home + "/.config/pcapview")
		viper.AddConfigPath(home + "/.config")
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")

		viper.SetConfigName("config")
		if err := viper.ReadInConfig(); err != nil {
			viper.SetConfigName("pcapview")
		}
	}

	viper.SetEnvPrefix("PCAPVIEW")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Debug("Using config file", "file", viper.ConfigFileUsed())
	}
}

// applyLogLevel sets the log level from --log-level, falling back to the
// log.level config key. LOG_LEVEL was already applied by logger.Initialize.
func applyLogLevel() error {
	level := logLevel
	if level == "" {
		level = viper.GetString("log.level")
	}
	if level == "" {
		return nil
	}
	if err := logger.SetLevel(level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}
