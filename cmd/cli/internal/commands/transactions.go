package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

func currentMonth() string {
	return time.Now().Format("2006-01")
}

// LogCmd records a transaction described in natural language, e.g.
// "pennywise log coffee 4.50" or "pennywise log +2000 salary".
type LogCmd struct {
	Text []string `arg:"" help:"Transaction description, e.g. 'coffee 4.50'"`
}

func (l *LogCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	if err := app.requireSession(ctx); err != nil {
		return err
	}

	tx, err := app.finance.LogText(ctx, strings.Join(l.Text, " "))
	if err != nil {
		return fmt.Errorf("failed to log transaction: %w", err)
	}

	sign := "-"
	if tx.Type == "income" {
		sign = "+"
	}
	fmt.Printf("Recorded %s%.2f  %s", sign, tx.Amount, tx.Description)
	if tx.Category != "" {
		fmt.Printf("  (%s)", tx.Category)
	}
	fmt.Println()

	return nil
}

// RecentCmd lists the latest transactions.
type RecentCmd struct {
	Limit int `help:"Number of transactions to show" default:"10"`
}

func (r *RecentCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	if err := app.requireSession(ctx); err != nil {
		return err
	}

	txs, err := app.finance.Recent(ctx, r.Limit)
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}

	if len(txs) == 0 {
		fmt.Println("No transactions yet.")
		fmt.Println()
		fmt.Println("Record one:")
		fmt.Println("  pennywise log coffee 4.50")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tAMOUNT\tDESCRIPTION\tCATEGORY")

	for _, tx := range txs {
		sign := "-"
		if tx.Type == "income" {
			sign = "+"
		}
		fmt.Fprintf(w, "%s\t%s%.2f\t%s\t%s\n",
			tx.OccurredAt.Format("2006-01-02"), sign, tx.Amount, tx.Description, tx.Category)
	}

	w.Flush()
	return nil
}

// SummaryCmd prints the monthly financial summary.
type SummaryCmd struct {
	Month string `help:"Month to summarise (YYYY-MM), defaults to the current month"`
}

func (s *SummaryCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	if err := app.requireSession(ctx); err != nil {
		return err
	}

	month := s.Month
	if month == "" {
		month = currentMonth()
	}

	summary, err := app.finance.MonthlySummary(ctx, month)
	if err != nil {
		return fmt.Errorf("failed to fetch summary: %w", err)
	}

	fmt.Printf("Summary for %s\n\n", summary.Month)
	fmt.Printf("  Income:   %10.2f\n", summary.Income)
	fmt.Printf("  Expenses: %10.2f\n", summary.Expenses)
	fmt.Printf("  Net:      %10.2f\n", summary.Net)

	if len(summary.TopCategories) > 0 {
		fmt.Println()
		fmt.Println("Top categories:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, c := range summary.TopCategories {
			fmt.Fprintf(w, "  %s\t%.2f\n", c.Category, c.Total)
		}
		w.Flush()
	}

	return nil
}
