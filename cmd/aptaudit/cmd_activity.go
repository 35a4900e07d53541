package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/persistorai/aptaudit/client"
)

func newActivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Query and purge the activity log",
	}
	cmd.AddCommand(activityQueryCmd())
	cmd.AddCommand(activityPurgeCmd())
	return cmd
}

func activityQueryCmd() *cobra.Command {
	var (
		opts  client.ActivityQueryOptions
		since string
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "List activity entries, newest first",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if since != "" {
				t, err := time.Parse(time.RFC3339, since)
				if err != nil {
					fatal("parse --since", err)
				}
				opts.Since = &t
			}
			entries, hasMore, err := apiClient.Activity.Query(context.Background(), &opts)
			if err != nil {
				fatal("query activity", err)
			}
			output(map[string]any{"data": entries, "has_more": hasMore}, fmt.Sprint(len(entries)), func() {
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, e.EntityType, e.EntityID, e.Actor})
				}
				formatTable([]string{"AT", "ACTION", "ENTITY", "ID", "ACTOR"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&opts.EntityType, "entity-type", "", "Filter by entity type")
	cmd.Flags().StringVar(&opts.EntityID, "entity-id", "", "Filter by entity id")
	cmd.Flags().StringVar(&opts.Action, "action", "", "Filter by action")
	cmd.Flags().StringVar(&since, "since", "", "Only entries after this RFC3339 time")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Offset")
	return cmd
}

func activityPurgeCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete activity entries older than the retention period",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			deleted, err := apiClient.Activity.Purge(context.Background(), days)
			if err != nil {
				fatal("purge activity", err)
			}
			output(map[string]int{"deleted": deleted}, fmt.Sprint(deleted), nil)
		},
	}
	cmd.Flags().IntVar(&days, "retention-days", 90, "Keep entries newer than this many days")
	return cmd
}
