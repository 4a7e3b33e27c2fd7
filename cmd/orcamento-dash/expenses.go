package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"orcamento/internal/cli"
	"orcamento/internal/core"
)

func expensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "List and record expenses",
	}

	cmd.AddCommand(listExpensesCmd())
	cmd.AddCommand(addExpenseCmd())
	cmd.AddCommand(deleteExpenseCmd())
	return cmd
}

func listExpensesCmd() *cobra.Command {
	var filter core.ExpenseFilterInput

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := newMirror()
			if err != nil {
				return err
			}

			page, st, err := m.Expenses(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("failed to list expenses: %w", err)
			}

			fmt.Println(cli.RenderState(st))
			fmt.Println(cli.RenderExpenses(page))
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Category, "category", "", "only this category")
	cmd.Flags().StringVar(&filter.StartDate, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&filter.EndDate, "to", "", "last date, YYYY-MM-DD")
	cmd.Flags().StringVar(&filter.Search, "search", "", "case-insensitive description match")
	cmd.Flags().StringVar(&filter.Page, "page", "", "page number (default 1)")
	cmd.Flags().StringVar(&filter.Limit, "limit", "", "page size (default 20, max 100)")
	return cmd
}

func addExpenseCmd() *cobra.Command {
	var in core.ExpenseInput

	cmd := &cobra.Command{
		Use:   "add <description> <amount>",
		Short: "Record an expense",
		Long: `Record an expense. It is saved locally at once and sent to the API;
if the API is unreachable the local copy is kept.

Passing --id of an existing expense replaces it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Description, in.Amount = args[0], args[1]
			if in.Date == "" {
				in.Date = core.DateOf(time.Now()).String()
			}

			m, err := newMirror()
			if err != nil {
				return err
			}

			e, done, err := m.SaveExpense(cmd.Context(), in)
			if err != nil {
				return err
			}
			awaitWrite(m, done, fmt.Sprintf("Saved expense %s (%s %s)", e.ID, e.Category, e.Amount))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.ID, "id", "", "expense id (default: generated)")
	cmd.Flags().StringVarP(&in.Category, "category", "c", "", "category (required)")
	cmd.Flags().StringVarP(&in.Date, "date", "d", "", "date, YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVar(&in.IsRecurring, "recurring", false, "mark as recurring")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func deleteExpenseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMirror()
			if err != nil {
				return err
			}

			done, err := m.DeleteExpense(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			awaitWrite(m, done, "Deleted expense "+args[0])
			return nil
		},
	}
}
