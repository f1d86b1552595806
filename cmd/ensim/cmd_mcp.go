package main

import (
	"github.com/spf13/cobra"

	"github.com/ensimdb/ensim/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server over stdio",
		Long: `Run an MCP (Model Context Protocol) server exposing the simulation
tools (ensim_simulate, ensim_models, ensim_columns) over stdio.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			rt, err := openRuntime(root)
			if err != nil {
				return err
			}
			defer rt.Close()

			server := mcp.NewServer(&mcp.Config{
				Name:    "ensim",
				Version: version,
			}, rt.adapter, rt.catalog, rt.provider, rt.store)

			return server.Run(cmd.Context())
		},
	}
}
