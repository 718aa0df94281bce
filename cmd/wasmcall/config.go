package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CosmWasm/regionvm/types"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective VM config or its JSON schema",
		Args:  cobra.NoArgs,
		RunE:  runConfig,
	}
	cmd.Flags().Bool("schema", false, "Print the JSON schema of the config file instead")
	return cmd
}

func runConfig(cmd *cobra.Command, _ []string) error {
	var (
		bz  []byte
		err error
	)
	if schema, _ := cmd.Flags().GetBool("schema"); schema {
		bz, err = types.VMConfigSchema()
	} else {
		var config types.VMConfig
		config, err = loadConfig(cmd)
		if err == nil {
			bz, err = json.MarshalIndent(config, "", "  ")
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(bz))
	return nil
}
