package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"remitdesk/internal/models"
	"remitdesk/internal/terms"
)

func newOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order"},
		Short:   "List, inspect and advance orders",
	}
	cmd.AddCommand(
		newOrdersListCmd(),
		newOrdersShowCmd(),
		newOrdersAdvanceCmd(),
	)
	return cmd
}

func newOrdersListCmd() *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := models.OrderFilter{Limit: limit}
			if status != "" {
				s, err := models.ParseOrderStatus(status)
				if err != nil {
					return err
				}
				filter.Status = &s
			}

			api, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			page, err := api.ListOrders(ctx, filter)
			if err != nil {
				return err
			}

			printOrders(cmd.OutOrStdout(), page.Items)
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d orders\n", len(page.Items), page.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum orders to list")
	return cmd
}

func printOrders(out io.Writer, orders []models.Order) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNUMBER\tSTATUS\tAMOUNT\tBENEFICIARY\tCREATED")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s\t%s\n",
			o.ID, o.Number, o.Status, o.Amount.StringFixed(terms.MinorUnits(o.Currency)), o.Currency,
			o.Beneficiary.Name, o.CreatedAt.Format("2006-01-02"))
	}
	w.Flush()
}

func newOrdersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show an order with its terms breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid order ID %q", args[0])
			}

			api, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			o, err := api.GetOrder(ctx, id)
			if err != nil {
				return err
			}
			return printOrder(cmd.OutOrStdout(), o)
		},
	}
}

func printOrder(out io.Writer, o *models.Order) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", o.ID)
	if o.Number != "" {
		fmt.Fprintf(w, "Number:\t%s\n", o.Number)
	}
	fmt.Fprintf(w, "Status:\t%s\n", o.Status)
	if o.RejectionReason != nil {
		fmt.Fprintf(w, "Rejected:\t%s\n", *o.RejectionReason)
	}
	fmt.Fprintf(w, "Amount:\t%s %s\n", o.Amount.StringFixed(terms.MinorUnits(o.Currency)), o.Currency)
	fmt.Fprintf(w, "Beneficiary:\t%s\n", o.Beneficiary.Name)
	fmt.Fprintf(w, "Bank:\t%s (%s)\n", o.Beneficiary.BankName, o.Beneficiary.BIC)
	fmt.Fprintf(w, "Purpose:\t%s\n", o.Purpose)
	w.Flush()

	b, ok, err := terms.ForOrder(o)
	if err != nil {
		return fmt.Errorf("order terms: %w", err)
	}
	if !ok {
		fmt.Fprintln(out, "\nNo terms yet.")
		return nil
	}

	clientCurrency := o.Terms.ClientCurrency
	if clientCurrency == "" {
		clientCurrency = o.Currency
	}
	fmt.Fprintln(out)
	printBreakdown(out, b.Rounded(o.Currency, clientCurrency), o.Currency, clientCurrency)
	return nil
}

func newOrdersAdvanceCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "advance ID STATUS",
		Short: "Move an order to another status",
		Long: `Move an order along its lifecycle. The move is checked against the
lifecycle table for your role before it is sent; the platform has the final word.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid order ID %q", args[0])
			}
			next, err := models.ParseOrderStatus(args[1])
			if err != nil {
				return err
			}
			reason = strings.TrimSpace(reason)
			if next == models.OrderStatusRejected && reason == "" {
				return fmt.Errorf("--reason is required when rejecting an order")
			}

			api, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			me, err := api.Me(ctx)
			if err != nil {
				return fmt.Errorf("who am I: %w", err)
			}
			o, err := api.GetOrder(ctx, id)
			if err != nil {
				return err
			}
			if !o.Status.CanTransition(next, me.Role) {
				return fmt.Errorf("cannot move order from %s to %s as %s", o.Status, next, me.Role)
			}

			change := models.StatusChange{Status: next}
			if reason != "" {
				change.Reason = &reason
			}
			updated, err := api.SetOrderStatus(ctx, id, change)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Order %s: %s -> %s\n", id, o.Status, updated.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason, required for rejected")
	return cmd
}
