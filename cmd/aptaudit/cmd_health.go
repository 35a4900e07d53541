package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server connectivity",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			h, err := apiClient.Health(context.Background())
			if err != nil {
				fatal("health", err)
			}
			output(h, h.Status, func() {
				formatTable([]string{"STATUS", "VERSION", "DATABASE", "SCHEMA", "WATCHERS"}, [][]string{{
					h.Status, h.Version, h.Database, fmt.Sprint(h.SchemaVersion), fmt.Sprint(h.WSClients),
				}})
			})
		},
	}
}
