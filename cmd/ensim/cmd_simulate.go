package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <query>",
		Short: "Execute a SIMULATE query",
		Long: `Execute a SIMULATE query against the configured ensemble.

Examples:
  ensim simulate "SIMULATE mass FROM penguins LIMIT 10"
  ensim simulate "SIMULATE mass FROM penguins GIVEN species = 'gentoo' LIMIT 100 USING SEED 42"
  ensim simulate "CREATE TABLE heavy AS SIMULATE mass, species FROM penguins LIMIT 1000"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			preview, _ := cmd.Flags().GetInt("preview")

			rt, err := openRuntime(root)
			if err != nil {
				return err
			}
			defer rt.Close()

			query := strings.Join(args, " ")
			h, err := rt.adapter.Run(cmd.Context(), query)
			if err != nil {
				return err
			}

			schema, err := rt.store.Describe(cmd.Context(), h)
			if err != nil {
				return fmt.Errorf("describing result: %w", err)
			}
			rows, err := rt.store.ReadRows(cmd.Context(), h)
			if err != nil {
				return fmt.Errorf("reading result: %w", err)
			}

			names := make([]string, len(schema.Columns))
			for i, col := range schema.Columns {
				names[i] = col.Name
			}
			shown := rows
			if preview >= 0 && len(shown) > preview {
				shown = shown[:preview]
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"table":     h.Name,
					"temporary": h.Temporary,
					"rows":      len(rows),
					"columns":   names,
					"preview":   shown,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d rows", h.Name, len(rows))
			if h.Temporary {
				fmt.Fprint(cmd.OutOrStdout(), ", temporary")
			}
			fmt.Fprintln(cmd.OutOrStdout(), ")")

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, strings.Join(names, "\t"))
			for _, row := range shown {
				cells := make([]string, len(row))
				for i, v := range row {
					switch t := v.(type) {
					case float64:
						cells[i] = fmt.Sprintf("%.4g", t)
					default:
						cells[i] = fmt.Sprint(t)
					}
				}
				fmt.Fprintln(w, strings.Join(cells, "\t"))
			}
			if len(shown) < len(rows) {
				fmt.Fprintf(w, "... %d more rows\n", len(rows)-len(shown))
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int("preview", 20, "Maximum rows to print (-1 for all)")
	return cmd
}
