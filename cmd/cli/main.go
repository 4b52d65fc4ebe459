package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/goreconcile/internal/adapter/http/dto"
	"github.com/iho/goreconcile/internal/infrastructure/logger"
	"github.com/iho/goreconcile/internal/infrastructure/postgres"
)

type globalFlags struct {
	baseURL string
	tenant  string
	actor   string
	timeout time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "goreconcile-cli",
		Short:         "GoReconcile CLI tool",
		Long:          `A command line interface for importing statements and invoices and reviewing reconciliation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.baseURL, "url", "http://localhost:8080", "Base URL of the GoReconcile API")
	rootCmd.PersistentFlags().StringVar(&flags.tenant, "tenant", os.Getenv("GORECONCILE_TENANT"), "Tenant id sent with every request")
	rootCmd.PersistentFlags().StringVar(&flags.actor, "actor", os.Getenv("USER"), "Actor recorded in the audit trail")
	rootCmd.PersistentFlags().DurationVar(&flags.timeout, "timeout", 30*time.Second, "Request timeout")

	client := func() *apiClient {
		return newAPIClient(flags.baseURL, flags.tenant, flags.actor, flags.timeout)
	}

	rootCmd.AddCommand(
		importCmd(client),
		balanceCmd(client),
		suggestCmd(client),
		reverseCmd(client),
		migrateCmd(),
	)
	return rootCmd
}

func importCmd(client func() *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import statements and invoices",
	}

	var bankID string
	statementCmd := &cobra.Command{
		Use:   "statement FILE",
		Short: "Import a bank statement CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client().importStatement(cmd.Context(), bankID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "batch %s: %d transactions imported\n", resp.Batch.ID, resp.Batch.TransactionCount)
			return nil
		},
	}
	statementCmd.Flags().StringVar(&bankID, "bank", "", "Bank id the statement belongs to")
	_ = statementCmd.MarkFlagRequired("bank")

	var update bool
	invoicesCmd := &cobra.Command{
		Use:   "invoices FILE...",
		Short: "Import invoice documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client().importInvoices(cmd.Context(), args, update)
			if err != nil {
				return err
			}
			printBulkImport(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	invoicesCmd.Flags().BoolVar(&update, "update", false, "Update invoices that were already imported")

	cmd.AddCommand(statementCmd, invoicesCmd)
	return cmd
}

func balanceCmd(client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "balance BANK_ID",
		Short: "Show the current balance of a bank",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client().balance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func suggestCmd(client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest BATCH_ID",
		Short: "List match suggestions for an import batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := client().suggestions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSuggestions(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

func reverseCmd(client func() *apiClient) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "reverse TRANSACTION_ID",
		Short: "Reverse the reconciliation of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client().reverse(cmd.Context(), args[0], reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "transaction %s is %s\n", resp.Transaction.ID, resp.Transaction.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Why the reconciliation is reversed")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func migrateCmd() *cobra.Command {
	var databaseURL, path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	cmd.PersistentFlags().StringVar(&path, "path", "migrations", "Directory holding migration files")

	log := logger.New(logger.Config{Level: "info", Format: "console"})

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return postgres.RunMigrations(databaseURL, path, log)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return postgres.RunMigrationsDown(databaseURL, path, log)
			},
		},
	)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printBulkImport(w io.Writer, resp *dto.BulkImportResponse) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tOUTCOME\tINVOICE\tERROR")
	for _, item := range resp.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", item.FileName, item.Outcome, item.InvoiceID, truncate(item.Error, 60))
	}
	tw.Flush()
	fmt.Fprintf(w, "succeeded=%d updated=%d duplicates=%d failed=%d\n",
		resp.Succeeded, resp.Updated, resp.Duplicates, resp.Failed)
}

func printSuggestions(w io.Writer, list []dto.TransactionSuggestionResponse) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TRANSACTION\tDATE\tAMOUNT\tDESCRIPTION\tMATCH\tCONFIDENCE")
	for _, item := range list {
		tx := item.Transaction
		match, confidence := "-", "-"
		if s := item.Suggestion; s != nil {
			match = s.Candidate.Kind + ":" + s.Candidate.ID
			confidence = s.Confidence
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.TransactionDate, tx.Amount, truncate(tx.Description, 40), match, confidence)
	}
	tw.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
