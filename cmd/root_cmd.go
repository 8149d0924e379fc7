package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.nownabe.dev/tabload/cmd/config"
)

// Version is the tabload version
var Version = "development"

func Prepare() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "tabload",
		Short:        "Validate tabular data and load it into a database",
		SilenceUsage: true,
		Version:      Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(); err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			return nil
		},
	}

	viper.SetEnvPrefix("TABLOAD")
	viper.AutomaticEnv()

	// root cmd
	rootCmd.PersistentFlags().StringP("config", "c", "", ".env or .yaml config file to use with tabload")
	rootCmd.PersistentFlags().String("log-level", "", "log level. One of trace, debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("pretty", false, "print human friendly logs")

	// validate cmd
	validateCmd.Flags().Int("max-rejections", 20, "maximum number of rejections to print per job")

	// query cmd
	queryCmd.Flags().StringSlice("where", nil, "equality conditions in the format column=value")
	queryCmd.Flags().StringSlice("columns", nil, "columns to select, all when empty")
	queryCmd.Flags().String("order-by", "", "column to order by")
	queryCmd.Flags().Bool("desc", false, "order descending")
	queryCmd.Flags().Int("limit", 10, "maximum number of rows, 0 for no limit")

	rootFlagBinding(rootCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(queryCmd)
	return rootCmd
}

// Execute executes the root command.
func Execute() error {
	cmd := Prepare()
	return cmd.Execute()
}

func withSignalWatcher(fn func(ctx context.Context, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(),
			syscall.SIGHUP,
			syscall.SIGINT,
			syscall.SIGTERM,
			syscall.SIGQUIT)
		defer cancel()

		return fn(ctx, cmd, args)
	}
}

func rootFlagBinding(cmd *cobra.Command) {
	viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("TABLOAD_LOG_LEVEL", cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("TABLOAD_PRETTY_LOGGING", cmd.PersistentFlags().Lookup("pretty"))
}

func parseConfig() (*config.Config, error) {
	cfg, err := config.Parse()
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
