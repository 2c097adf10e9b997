package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/mailrecon/internal/adapter/http/dto"
	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/infrastructure/config"
	"github.com/iho/mailrecon/internal/infrastructure/logger"
	"github.com/iho/mailrecon/internal/infrastructure/postgres"
	"github.com/iho/mailrecon/internal/usecase"
)

var (
	baseURL        string
	timeout        time.Duration
	idempotencyKey string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mailrecon-cli",
		Short:         "Mailrecon CLI tool",
		Long:          `A command line interface for the mail reconciliation pipeline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the mailrecon API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 60*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key for mutating requests")

	rootCmd.AddCommand(scanCmd(), candidatesCmd(), movementsCmd(), postingCmd(), migrateCmd())
	return rootCmd
}

func client() *apiClient {
	return newAPIClient(baseURL, timeout, idempotencyKey)
}

// Scan commands

func scanCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the mailbox for new notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result dto.ScanResultResponse
			if err := client().do(cmd.Context(), http.MethodPost, "/api/v1/scans/", nil, dto.TriggerScanRequest{Kind: kind}, &result); err != nil {
				return err
			}
			if result.Skipped {
				fmt.Fprintln(cmd.OutOrStdout(), "Scan skipped: another scan is running")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Processed: %d  New: %d  Duplicate: %d  Errors: %d\n",
				result.Processed, result.New, result.Duplicate, result.Errors)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Restrict the scan to bank or utility notifications")

	cmd.AddCommand(&cobra.Command{
		Use:   "state",
		Short: "Show the scan watermark",
		RunE: func(cmd *cobra.Command, args []string) error {
			var state dto.ScanStateResponse
			if err := client().do(cmd.Context(), http.MethodGet, "/api/v1/scans/state", nil, nil, &state); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), state)
		},
	})
	return cmd
}

// Candidate commands

func candidatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "Reconciliation candidate operations",
	}

	var gen dto.GenerateCandidatesRequest
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Propose candidates for unreconciled movements",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result dto.GenerateCandidatesResponse
			if err := client().do(cmd.Context(), http.MethodPost, "/api/v1/reconciliation/candidates/generate", nil, gen, &result); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Movements: %d  Candidates: %d  Errors: %d\n", result.ProcessedMovements, result.TotalCandidates, result.Errors)
			printCandidates(cmd.OutOrStdout(), result.Candidates)
			return nil
		},
	}
	generate.Flags().StringVar(&gen.MovementID, "movement", "", "Only this movement")
	generate.Flags().IntVar(&gen.ToleranceDays, "tolerance", 0, "Date tolerance in days")
	generate.Flags().IntVar(&gen.MaxPerMovement, "max", 0, "Maximum candidates per movement")

	var movementID, status string
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if movementID != "" {
				query.Set("movement_id", movementID)
			}
			if status != "" {
				query.Set("status", status)
			}
			query.Set("limit", strconv.Itoa(limit))

			var result dto.ListCandidatesResponse
			if err := client().do(cmd.Context(), http.MethodGet, "/api/v1/reconciliation/candidates/", query, nil, &result); err != nil {
				return err
			}
			printCandidates(cmd.OutOrStdout(), result.Candidates)
			fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\n", result.Total)
			return nil
		},
	}
	list.Flags().StringVar(&movementID, "movement", "", "Filter by movement")
	list.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, CONFIRMED, REJECTED)")
	list.Flags().IntVar(&limit, "limit", 20, "Page size")

	cmd.AddCommand(generate, list,
		resolveCandidateCmd("confirm", domain.CandidateConfirmed),
		resolveCandidateCmd("reject", domain.CandidateRejected),
	)
	return cmd
}

func resolveCandidateCmd(use string, status domain.CandidateStatus) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   use + " <candidate-id>",
		Short: "Mark a pending candidate " + string(status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.UpdateCandidateRequest{Status: string(status), Notes: notes}
			var result dto.CandidateResponse
			if err := client().do(cmd.Context(), http.MethodPatch, "/api/v1/reconciliation/candidates/"+url.PathEscape(args[0]), nil, req, &result); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Candidate %s is %s\n", result.ID, result.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "Reviewer notes")
	return cmd
}

func printCandidates(w io.Writer, candidates []*dto.CandidateResponse) {
	for _, c := range candidates {
		fmt.Fprintf(w, "%s  %-9s  %3d  %s -> %s\n", c.ID, c.Status, c.Score, truncate(c.MovementID, 26), truncate(c.TransactionID, 26))
	}
}

// Movement commands

func movementsCmd() *cobra.Command {
	var unreconciled bool
	var limit int
	return withFlags(&cobra.Command{
		Use:   "movements",
		Short: "List recorded bank movements",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{"limit": {strconv.Itoa(limit)}}
			if unreconciled {
				query.Set("reconciled", "false")
			}
			var result dto.ListMovementsResponse
			if err := client().do(cmd.Context(), http.MethodGet, "/api/v1/movements/", query, nil, &result); err != nil {
				return err
			}
			for _, m := range result.Movements {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %-6s  %14s  %s\n", m.ID, m.OperationDate, m.Direction, m.Amount.StringFixed(2), truncate(m.Concept, 30))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\n", result.Total)
			return nil
		},
	}, func(cmd *cobra.Command) {
		cmd.Flags().BoolVar(&unreconciled, "unreconciled", false, "Only movements without a confirmed match")
		cmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	})
}

// Posting commands

func postingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posting",
		Short: "Ledger posting operations",
	}

	var validateFile string
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check that a posting file balances without sending it",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readPostingRequest(validateFile)
			if err != nil {
				return err
			}
			input, err := req.ToUseCaseInput()
			if err != nil {
				return err
			}
			posting, err := usecase.BuildPosting(input)
			if err != nil {
				return err
			}
			debit, credit := posting.Totals()
			fmt.Fprintf(cmd.OutOrStdout(), "Posting is balanced: %d lines, debit %s, credit %s\n",
				len(posting.Lines), debit.StringFixed(2), credit.StringFixed(2))
			return nil
		},
	}
	validate.Flags().StringVarP(&validateFile, "file", "f", "", "Posting JSON file (- for stdin)")
	_ = validate.MarkFlagRequired("file")

	var createFile string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a posting from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readPostingRequest(createFile)
			if err != nil {
				return err
			}
			var result dto.PostingResponse
			if err := client().do(cmd.Context(), http.MethodPost, "/api/v1/postings/", nil, req, &result); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	create.Flags().StringVarP(&createFile, "file", "f", "", "Posting JSON file (- for stdin)")
	_ = create.MarkFlagRequired("file")

	cmd.AddCommand(validate, create)
	return cmd
}

func readPostingRequest(path string) (*dto.CreatePostingRequest, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var req dto.CreatePostingRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid posting file: %w", err)
	}
	return &req, nil
}

// Migration commands

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrationConfig(func(cfg *config.Config) error {
					return postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, migrationLogger(cmd, cfg))
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrationConfig(func(cfg *config.Config) error {
					return postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath, migrationLogger(cmd, cfg))
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the applied schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrationConfig(func(cfg *config.Config) error {
					version, dirty, err := postgres.MigrationVersion(cfg.DatabaseURL, cfg.MigrationsPath, migrationLogger(cmd, cfg))
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d (dirty: %v)\n", version, dirty)
					return nil
				})
			},
		},
	)
	return cmd
}

func withMigrationConfig(fn func(*config.Config) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return fn(cfg)
}

func migrationLogger(cmd *cobra.Command, cfg *config.Config) zerolog.Logger {
	return logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Format: "console"}, cmd.ErrOrStderr())
}

func withFlags(cmd *cobra.Command, fn func(*cobra.Command)) *cobra.Command {
	fn(cmd)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
