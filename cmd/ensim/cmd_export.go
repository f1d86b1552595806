package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ensimdb/ensim/internal/storage"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <table>",
		Short: "Export a result table to an Arrow IPC file",
		Long: `Export a materialized result table to an Arrow IPC file for use
in analysis tools.

Example:
  ensim export heavy_birds --out heavy_birds.arrow`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			out, _ := cmd.Flags().GetString("out")

			if out == "" {
				out = args[0] + ".arrow"
			}

			rt, err := openRuntime(root)
			if err != nil {
				return err
			}
			defer rt.Close()

			h, err := rt.store.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			schema, err := rt.store.Describe(cmd.Context(), h)
			if err != nil {
				return err
			}
			rows, err := rt.store.ReadRows(cmd.Context(), h)
			if err != nil {
				return err
			}

			if err := storage.WriteArrowFile(out, schema, rows); err != nil {
				return fmt.Errorf("exporting %q: %w", args[0], err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"table": args[0],
					"file":  out,
					"rows":  len(rows),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %s (%d rows) to %s\n", args[0], len(rows), out)
			return nil
		},
	}
	cmd.Flags().String("out", "", "Output file path (defaults to <table>.arrow)")
	return cmd
}
