package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/CosmWasm/regionvm/types"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wasmcall",
		Short: "Run metered WebAssembly contracts behind the Region boundary",
		Long: `wasmcall - Load a WebAssembly contract, call one of its exports with a gas
budget and report the results.

Contracts exchange data with the host through Regions in their linear memory
and may use the db_*, debug, abort and gas imports of the env module.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to a JSON VM config (default: built-in defaults)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newRunCmd(), newInspectCmd(), newConfigCmd())
	return rootCmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (types.VMConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return types.DefaultVMConfig(), nil
	}
	return types.LoadVMConfig(path)
}

func newLogger(cmd *cobra.Command, w io.Writer) (zerolog.Logger, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		return zerolog.Nop(), err
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).Level(level).With().Timestamp().Logger(), nil
}
