package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List materialized result tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")

			rt, err := openRuntime(root)
			if err != nil {
				return err
			}
			defer rt.Close()

			handles, err := rt.store.List(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				type entry struct {
					Name      string `json:"name"`
					ID        string `json:"id"`
					Temporary bool   `json:"temporary"`
				}
				entries := make([]entry, len(handles))
				for i, h := range handles {
					entries[i] = entry{Name: h.Name, ID: h.ID.String(), Temporary: h.Temporary}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{"tables": entries})
			}

			if len(handles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no result tables")
				return nil
			}
			for _, h := range handles {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", h.Name)
			}
			return nil
		},
	}
}
