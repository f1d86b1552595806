package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newColumnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "List the modeled columns and their domains",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")

			rt, err := openRuntime(root)
			if err != nil {
				return err
			}
			defer rt.Close()

			cols := rt.catalog.Columns()

			if jsonOut {
				type entry struct {
					Name   string   `json:"name"`
					Kind   string   `json:"kind"`
					Values []string `json:"values,omitempty"`
				}
				entries := make([]entry, len(cols))
				for i, col := range cols {
					entries[i] = entry{Name: col.Name, Kind: string(col.Domain.Kind), Values: col.Domain.Values}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{"columns": entries})
			}

			for _, col := range cols {
				if len(col.Domain.Values) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s {%s}\n", col.Name, col.Domain.Kind, strings.Join(col.Domain.Values, ", "))
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", col.Name, col.Domain.Kind)
				}
			}
			return nil
		},
	}
}
