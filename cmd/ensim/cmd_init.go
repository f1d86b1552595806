package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const defaultConfigYAML = `# ensim configuration
sampling:
  workers: 0        # 0 means GOMAXPROCS
  max_rows: 1000000
storage:
  path: results.db
logging:
  level: info       # info, debug, or trace
`

const sampleCatalogYAML = `# Modeled columns and their domains.
columns:
  - name: species
    kind: categorical
    values: [adelie, gentoo, chinstrap]
  - name: mass
    kind: numeric
`

const sampleEnsembleYAML = `# Trained ensemble. Replace with real training output.
id: penguins
version: 1
models:
  - id: m1
    views:
      - columns: [species, mass]
        categories:
          - size: 100
            distributions:
              species: {kind: categorical, weights: {adelie: 0.6, gentoo: 0.3, chinstrap: 0.1}}
              mass: {kind: gaussian, mean: 4200, variance: 640000}
`

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize an ensim working directory",
		Long: `Initialize the .ensim/ directory with a default configuration and
sample catalog and ensemble files. Existing files are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			withSamples, _ := cmd.Flags().GetBool("samples")

			dir := ensimDir(root)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("creating %s: %w", dir, err)
			}

			files := map[string]string{
				"config.yaml": defaultConfigYAML,
			}
			if withSamples {
				files["catalog.yaml"] = sampleCatalogYAML
				files["ensemble.yaml"] = sampleEnsembleYAML
			}

			var written []string
			for name, content := range files {
				path := filepath.Join(dir, name)
				if _, err := os.Stat(path); err == nil {
					continue
				}
				if err := os.WriteFile(path, []byte(content), 0644); err != nil {
					return fmt.Errorf("writing %s: %w", path, err)
				}
				written = append(written, name)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"dir":     dir,
					"written": written,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s\n", dir)
			for _, name := range written {
				fmt.Fprintf(cmd.OutOrStdout(), "  wrote %s\n", name)
			}
			return nil
		},
	}
	cmd.Flags().Bool("samples", true, "Write sample catalog.yaml and ensemble.yaml")
	return cmd
}
