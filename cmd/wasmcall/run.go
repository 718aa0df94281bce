package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/spf13/cobra"

	"github.com/CosmWasm/regionvm"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file.wasm> <export> [args...]",
		Short: "Call an export with a gas budget",
		Long: `Instantiate the contract against an in-memory store and call one export.

Arguments are passed as integers. The store can be seeded with --set and
printed after the call with --kv-dump.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runRun,
	}
	cmd.Flags().Uint64("gas", 0, "Gas limit for the call (default: default_gas_limit from the config)")
	cmd.Flags().StringSlice("set", nil, "Seed the store with key=value (repeatable)")
	cmd.Flags().Bool("kv-dump", false, "Print the store contents after the call")
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
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
	params, err := parseArgs(args[2:])
	if err != nil {
		return err
	}
	gasLimit, _ := cmd.Flags().GetUint64("gas")
	if gasLimit == 0 {
		gasLimit = config.DefaultGasLimit
	}

	store := dbm.NewMemDB()
	seeds, _ := cmd.Flags().GetStringSlice("set")
	for _, seed := range seeds {
		key, value, ok := strings.Cut(seed, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid store seed %q (expected key=value)", seed)
		}
		if err := store.Set([]byte(key), []byte(value)); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	vm, err := regionvm.NewVM(ctx, config, logger)
	if err != nil {
		return err
	}
	defer vm.Close(ctx)

	contract, err := vm.Instantiate(ctx, code, store)
	if err != nil {
		return err
	}
	results, report, callErr := vm.Execute(ctx, contract, args[1], gasLimit, params...)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "gas limit: %d\n", report.Limit)
	fmt.Fprintf(out, "gas used: %d\n", report.UsedInternally)
	if callErr == nil {
		fmt.Fprintf(out, "results: %v\n", results)
	}
	if dump, _ := cmd.Flags().GetBool("kv-dump"); dump {
		if err := dumpStore(cmd, store); err != nil {
			return err
		}
	}
	return callErr
}

func parseArgs(args []string) ([]uint64, error) {
	params := make([]uint64, 0, len(args))
	for _, arg := range args {
		if v, err := strconv.ParseUint(arg, 0, 64); err == nil {
			params = append(params, v)
			continue
		}
		v, err := strconv.ParseInt(arg, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid argument %q: %w", arg, err)
		}
		params = append(params, uint64(v))
	}
	return params, nil
}

func dumpStore(cmd *cobra.Command, store dbm.DB) error {
	iter, err := store.Iterator(nil, nil)
	if err != nil {
		return err
	}
	defer iter.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "store:")
	for ; iter.Valid(); iter.Next() {
		fmt.Fprintf(out, "  %q = %q\n", iter.Key(), iter.Value())
	}
	return iter.Error()
}
