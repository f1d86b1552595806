package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ensimdb/ensim/internal/sampling"
)

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List ensemble members and their posterior weights",
		Long: `List the ensemble members with their weights. Without evidence the
weights are uniform; with --given the weights reflect how well each
member explains the evidence.

Examples:
  ensim models
  ensim models --given species=gentoo --given mass=5000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			givenFlags, _ := cmd.Flags().GetStringSlice("given")

			rt, err := openRuntime(root)
			if err != nil {
				return err
			}
			defer rt.Close()

			evidence := make([]sampling.Condition, 0, len(givenFlags))
			for _, g := range givenFlags {
				name, literal, found := strings.Cut(g, "=")
				if !found {
					return fmt.Errorf("invalid --given %q, expected column=value", g)
				}
				col, err := rt.catalog.Resolve(name)
				if err != nil {
					return err
				}
				v, err := col.Domain.Coerce(literal)
				if err != nil {
					return fmt.Errorf("evidence %s = %q: %w", name, literal, err)
				}
				evidence = append(evidence, sampling.Condition{Column: col, Value: v})
			}

			ens := rt.provider.Snapshot()
			weights, err := sampling.ModelWeights(ens, evidence)
			if err != nil {
				return err
			}

			if jsonOut {
				type entry struct {
					ID     string  `json:"id"`
					Weight float64 `json:"weight"`
				}
				out := map[string]any{
					"ensemble": ens.ID,
					"version":  ens.Version,
				}
				entries := make([]entry, len(weights))
				for i, m := range ens.Models {
					entries[i] = entry{ID: m.ID, Weight: weights[i]}
				}
				out["models"] = entries
				return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ensemble %s (version %d)\n", ens.ID, ens.Version)
			for i, m := range ens.Models {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %.6f\n", m.ID, weights[i])
			}
			return nil
		},
	}
	cmd.Flags().StringSlice("given", nil, "Evidence as column=value (repeatable)")
	return cmd
}
