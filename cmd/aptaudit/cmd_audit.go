package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/persistorai/aptaudit/client"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Start, inspect and finish audits",
	}
	cmd.AddCommand(auditStartCmd())
	cmd.AddCommand(auditGetCmd())
	cmd.AddCommand(auditListCmd())
	cmd.AddCommand(auditCompleteCmd())
	cmd.AddCommand(auditCancelCmd())
	cmd.AddCommand(auditSummaryCmd())
	cmd.AddCommand(auditIncidencesCmd())
	cmd.AddCommand(auditHistoryCmd())
	return cmd
}

func auditStartCmd() *cobra.Command {
	var templateVersion int64
	cmd := &cobra.Command{
		Use:   "start <apartment-id>",
		Short: "Start an audit for an apartment",
		Args:  idArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.StartAuditRequest{ApartmentID: mustID(args[0])}
			if templateVersion > 0 {
				req.TemplateVersionID = &templateVersion
			}
			detail, err := apiClient.Audits.Start(context.Background(), req)
			if err != nil {
				var apiErr *client.APIError
				if errors.As(err, &apiErr) && apiErr.ExistingAuditID > 0 {
					fatal("start audit", fmt.Errorf("%w (existing audit %d)", err, apiErr.ExistingAuditID))
				}
				fatal("start audit", err)
			}
			output(detail, idStr(detail.ID), func() {
				formatTable([]string{"ITEM", "QUESTION", "TYPE", "ANSWERED", "TEXT"}, itemRows(detail.Items))
			})
		},
	}
	cmd.Flags().Int64Var(&templateVersion, "template-version", 0, "Template version id (default: the default version)")
	return cmd
}

func auditGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <audit-id|uuid>",
		Short: "Show an audit and its items",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			detail, err := apiClient.Audits.Get(context.Background(), args[0])
			if err != nil {
				fatal("get audit", err)
			}
			output(detail, detail.Status, func() {
				fmt.Printf("audit %d  %s  %.1f%%\n\n", detail.ID, detail.Status, detail.CompletionRate)
				formatTable([]string{"ITEM", "QUESTION", "TYPE", "ANSWERED", "TEXT"}, itemRows(detail.Items))
			})
		},
	}
}

func auditListCmd() *cobra.Command {
	var (
		status        string
		limit, offset int
	)
	cmd := &cobra.Command{
		Use:   "list <apartment-id>",
		Short: "List audits of an apartment",
		Args:  idArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			audits, hasMore, err := apiClient.Audits.ListByApartment(context.Background(), mustID(args[0]), &client.ListOptions{
				Status: status,
				Limit:  limit,
				Offset: offset,
			})
			if err != nil {
				fatal("list audits", err)
			}
			output(map[string]any{"data": audits, "has_more": hasMore}, fmt.Sprint(len(audits)), func() {
				rows := make([][]string, 0, len(audits))
				for _, a := range audits {
					rows = append(rows, []string{idStr(a.ID), a.Status, fmt.Sprintf("%.1f", a.CompletionRate), a.CreatedBy, a.CreatedAt.Format("2006-01-02 15:04")})
				}
				formatTable([]string{"ID", "STATUS", "RATE", "BY", "CREATED"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (IN_PROGRESS, COMPLETED, CANCELLED)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	return cmd
}

func auditCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <audit-id>",
		Short: "Complete an audit",
		Args:  idArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			audit, err := apiClient.Audits.Complete(context.Background(), mustID(args[0]))
			if err != nil {
				fatal("complete audit", err)
			}
			output(audit, audit.Status, nil)
		},
	}
}

func auditCancelCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "cancel <audit-id>",
		Short: "Cancel an audit",
		Args:  idArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			audit, err := apiClient.Audits.Cancel(context.Background(), mustID(args[0]), reason)
			if err != nil {
				fatal("cancel audit", err)
			}
			output(audit, audit.Status, nil)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Why the audit is cancelled")
	return cmd
}

func auditSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <audit-id>",
		Short: "Show audit progress",
		Args:  idArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			s, err := apiClient.Audits.Summary(context.Background(), mustID(args[0]))
			if err != nil {
				fatal("audit summary", err)
			}
			output(s, fmt.Sprintf("%.1f", s.CompletionRate), func() {
				formatTable([]string{"STATUS", "RATE", "ANSWERED", "PENDING MANDATORY", "FOLLOW-UPS", "OPEN INCIDENCES"}, [][]string{{
					s.Status,
					fmt.Sprintf("%.1f", s.CompletionRate),
					fmt.Sprintf("%d/%d", s.AnsweredItems, s.TotalItems),
					fmt.Sprint(s.PendingMandatoryItems),
					fmt.Sprint(s.FollowUpItems),
					fmt.Sprint(s.OpenIncidences),
				}})
			})
		},
	}
}

func auditIncidencesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "incidences <audit-id>",
		Short: "List incidences raised during an audit",
		Args:  idArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			incidences, err := apiClient.Audits.Incidences(context.Background(), mustID(args[0]))
			if err != nil {
				fatal("list incidences", err)
			}
			output(incidences, fmt.Sprint(len(incidences)), func() {
				formatTable([]string{"ID", "SEVERITY", "STATUS", "ITEM", "TITLE"}, incidenceRows(incidences))
			})
		},
	}
}

func auditHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <audit-id>",
		Short: "Show audit status transitions",
		Args:  idArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			history, err := apiClient.Audits.History(context.Background(), mustID(args[0]))
			if err != nil {
				fatal("audit history", err)
			}
			output(history, fmt.Sprint(len(history)), func() {
				rows := make([][]string, 0, len(history))
				for _, h := range history {
					from := "-"
					if h.FromStatus != nil {
						from = *h.FromStatus
					}
					rows = append(rows, []string{h.CreatedAt.Format("2006-01-02 15:04:05"), from, h.ToStatus, h.Actor, h.Reason})
				}
				formatTable([]string{"AT", "FROM", "TO", "ACTOR", "REASON"}, rows)
			})
		},
	}
}
