package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/CosmWasm/regionvm"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.wasm>",
		Short: "List the exports and imports of a contract",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	code, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	vm, err := regionvm.NewVM(ctx, config, logger)
	if err != nil {
		return err
	}
	defer vm.Close(ctx)

	info, err := vm.Inspect(ctx, code)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "exported functions:")
	for _, name := range info.ExportedFunctions() {
		fmt.Fprintf(out, "  %s\n", name)
	}
	fmt.Fprintln(out, "exported memories:")
	for _, name := range info.ExportedMemories() {
		fmt.Fprintf(out, "  %s\n", name)
	}
	fmt.Fprintln(out, "imported functions:")
	for _, imp := range info.ImportedFunctions() {
		fmt.Fprintf(out, "  %s.%s\n", imp.Module, imp.Name)
	}
	return nil
}
