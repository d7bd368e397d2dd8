package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iho/cfadjust/internal/adapter/gateway"
	"github.com/iho/cfadjust/internal/adapter/page"
	"github.com/iho/cfadjust/internal/domain"
	"github.com/iho/cfadjust/internal/infrastructure/postgres"
	"github.com/iho/cfadjust/internal/usecase"
)

// withApp runs fn with the configured app and releases its connections.
func withApp(current func() *app, fn func(cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a := current()
		defer a.close()
		return fn(cmd, a)
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func entryCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Ledger entry operations",
	}

	var pageFile, entryID string
	var raw bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print an entry as read from the cash flow page",
		RunE: withApp(current, func(cmd *cobra.Command, a *app) error {
			ledger, err := a.ledger(cmd.Context(), pageFile)
			if err != nil {
				return err
			}
			if raw {
				row, err := findRow(ledger, entryID)
				if err != nil {
					return err
				}
				return printJSON(a.out, row.Fields())
			}
			entry, err := findEntry(ledger, entryID)
			if err != nil {
				return err
			}
			return printJSON(a.out, entry)
		}),
	}
	show.Flags().StringVar(&pageFile, "page", "", "saved cash flow page (fetched from the host when empty)")
	show.Flags().StringVar(&entryID, "id", "", "entry id")
	show.Flags().BoolVar(&raw, "raw", false, "print the row fields as posted to /api/v1/entries/extract")
	show.MarkFlagRequired("id")

	cmd.AddCommand(show)
	return cmd
}

func findRow(ledger *page.Ledger, entryID string) (*page.Row, error) {
	row, ok := ledger.Row(entryID)
	if !ok {
		return nil, fmt.Errorf("entry %s is not on the page", entryID)
	}
	return row, nil
}

func findEntry(ledger *page.Ledger, entryID string) (*domain.Entry, error) {
	row, err := findRow(ledger, entryID)
	if err != nil {
		return nil, err
	}
	return usecase.ExtractEntry(row)
}

func accountsCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Cached account list",
	}

	var pageFile string
	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "Read the accounts page and cache its account list",
		RunE: withApp(current, func(cmd *cobra.Command, a *app) error {
			ctx := cmd.Context()
			body, err := a.readPage(ctx, pageFile, gateway.AccountsPagePath)
			if err != nil {
				return fmt.Errorf("read accounts page: %w", err)
			}
			accounts, err := page.ParseAccounts(bytes.NewReader(body))
			if err != nil {
				return err
			}

			uc, err := a.accountUseCase(ctx)
			if err != nil {
				return err
			}
			snapshot, err := uc.Refresh(ctx, accounts)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "cached %d accounts\n", len(snapshot.Accounts))
			return nil
		}),
	}
	refresh.Flags().StringVar(&pageFile, "page", "", "saved accounts page (fetched from the host when empty)")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the cached account list",
		RunE: withApp(current, func(cmd *cobra.Command, a *app) error {
			uc, err := a.accountUseCase(cmd.Context())
			if err != nil {
				return err
			}
			snapshot, err := uc.RequireSnapshot(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME")
			for _, acc := range snapshot.Accounts {
				fmt.Fprintf(w, "%s\t%s\n", acc.ID, truncate(acc.Name, 40))
			}
			return w.Flush()
		}),
	}

	cmd.AddCommand(refresh, show)
	return cmd
}

// adjustFlags are shared by every adjust subcommand.
type adjustFlags struct {
	page       string
	entryID    string
	subAccount string
	yes        bool
}

func (f *adjustFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.page, "page", "", "saved cash flow page (fetched from the host when empty)")
	cmd.Flags().StringVar(&f.entryID, "id", "", "entry id")
	cmd.Flags().StringVar(&f.subAccount, "sub-account", "", "id of the adjustment sub-account")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "do not ask for confirmation")
	cmd.MarkFlagRequired("id")
}

type workflowFunc func(uc *usecase.AdjustmentUseCase, target usecase.AdjustmentTarget) (*usecase.AdjustmentResult, error)

func (f *adjustFlags) run(current func() *app, workflow workflowFunc) func(*cobra.Command, []string) error {
	return withApp(current, func(cmd *cobra.Command, a *app) error {
		ctx := cmd.Context()

		ledger, err := a.ledger(ctx, f.page)
		if err != nil {
			return err
		}
		entry, err := findEntry(ledger, f.entryID)
		if err != nil {
			return err
		}

		accountUC, err := a.accountUseCase(ctx)
		if err != nil {
			return err
		}
		snapshot, err := accountUC.Snapshot(ctx)
		if err != nil {
			return err
		}

		client, err := a.gateway(ledger.CSRFToken)
		if err != nil {
			return err
		}
		uc, err := a.adjustmentUseCase(ctx, client, newPromptConfirmer(a.in, a.out, f.yes))
		if err != nil {
			return err
		}

		result, err := workflow(uc, usecase.AdjustmentTarget{
			Entry:                  entry,
			AdjustmentSubAccountID: f.subAccount,
			Accounts:               snapshot,
			SubAccounts:            ledger.SubAccounts,
		})
		if errors.Is(err, domain.ErrConfirmationDeclined) {
			fmt.Fprintln(a.out, "cancelled")
			return nil
		}
		if err != nil {
			return err
		}
		return printJSON(a.out, result)
	})
}

func adjustCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Rebook an entry through the adjustment sub-account",
	}

	var changeFlags adjustFlags
	var targetDate string
	changeDate := &cobra.Command{
		Use:   "change-date",
		Short: "Move an entry to another date",
	}
	changeDate.RunE = changeFlags.run(current, func(uc *usecase.AdjustmentUseCase, target usecase.AdjustmentTarget) (*usecase.AdjustmentResult, error) {
		date, err := domain.ParseDate(targetDate)
		if err != nil {
			return nil, err
		}
		return uc.ChangeDate(changeDate.Context(), usecase.ChangeDateInput{AdjustmentTarget: target, TargetDate: date})
	})
	changeFlags.register(changeDate)
	changeDate.Flags().StringVar(&targetDate, "date", "", "new date (YYYY-MM-DD or YYYY/MM/DD)")
	changeDate.MarkFlagRequired("date")

	var splitFlags adjustFlags
	var (
		numSplit  int
		frequency string
		startDate string
	)
	split := &cobra.Command{
		Use:   "split",
		Short: "Book an entry as a series of installments",
	}
	split.RunE = splitFlags.run(current, func(uc *usecase.AdjustmentUseCase, target usecase.AdjustmentTarget) (*usecase.AdjustmentResult, error) {
		start := target.Entry.Date
		if startDate != "" {
			d, err := domain.ParseDate(startDate)
			if err != nil {
				return nil, err
			}
			start = d
		}
		return uc.SplitInstallments(split.Context(), usecase.SplitInstallmentsInput{
			AdjustmentTarget: target,
			NumSplit:         numSplit,
			Frequency:        frequency,
			StartDate:        start,
		})
	})
	splitFlags.register(split)
	split.Flags().IntVar(&numSplit, "count", 0, "number of installments")
	split.Flags().StringVar(&frequency, "frequency", "monthly", "monthly, weekly or daily")
	split.Flags().StringVar(&startDate, "start", "", "date of the first installment (defaults to the entry date)")
	split.MarkFlagRequired("count")

	var shareFlags adjustFlags
	var mine int64
	share := &cobra.Command{
		Use:   "share",
		Short: "Split an entry between yourself and another payer",
	}
	share.RunE = shareFlags.run(current, func(uc *usecase.AdjustmentUseCase, target usecase.AdjustmentTarget) (*usecase.AdjustmentResult, error) {
		return uc.SplitShare(share.Context(), usecase.SplitShareInput{AdjustmentTarget: target, MyExpenseAmount: mine})
	})
	shareFlags.register(share)
	share.Flags().Int64Var(&mine, "mine", 0, "amount you paid yourself")
	share.MarkFlagRequired("mine")

	cmd.AddCommand(changeDate, split, share)
	return cmd
}

func runsCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Adjustment run journal",
	}

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List journaled runs, newest first",
		RunE: withApp(current, func(cmd *cobra.Command, a *app) error {
			if !a.cfg.JournalEnabled() {
				return errors.New("DATABASE_URL is not set, runs are not journaled")
			}
			uc, err := a.adjustmentUseCase(cmd.Context(), nil, nil)
			if err != nil {
				return err
			}
			runs, err := uc.ListRuns(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tENTRY\tSTATE\tCREATED\tERROR")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", r.ID, r.Kind, r.EntryID, r.State, r.CreatedEntries, truncate(r.Error, 40))
			}
			return w.Flush()
		}),
	}
	list.Flags().IntVar(&limit, "limit", 20, "page size")
	list.Flags().IntVar(&offset, "offset", 0, "page offset")

	cmd.AddCommand(list)
	return cmd
}

func migrateCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the run journal schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all migrations",
		RunE: withApp(current, func(cmd *cobra.Command, a *app) error {
			if !a.cfg.JournalEnabled() {
				return errors.New("DATABASE_URL is not set")
			}
			return postgres.RunMigrations(a.cfg.DatabaseURL, a.cfg.MigrationsPath, a.logger)
		}),
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: withApp(current, func(cmd *cobra.Command, a *app) error {
			if !a.cfg.JournalEnabled() {
				return errors.New("DATABASE_URL is not set")
			}
			return postgres.RunMigrationsDown(a.cfg.DatabaseURL, a.cfg.MigrationsPath, a.logger)
		}),
	}

	cmd.AddCommand(up, down)
	return cmd
}
