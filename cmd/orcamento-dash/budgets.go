package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"orcamento/internal/cli"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage monthly budget limits per category",
	}

	cmd.AddCommand(listBudgetsCmd())
	cmd.AddCommand(setBudgetCmd())
	cmd.AddCommand(deleteBudgetCmd())
	return cmd
}

func listBudgetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the limit of every category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := newMirror()
			if err != nil {
				return err
			}

			budgets, st, err := m.Budgets(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list budgets: %w", err)
			}

			fmt.Println(cli.RenderState(st))
			fmt.Println(cli.RenderBudgets(budgets))
			return nil
		},
	}
}

func setBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <category> <limit>",
		Short: "Set the monthly limit of a category",
		Long:  `Set the monthly limit of a category. A limit of 0 is kept as a budget of zero, which is not the same as having no budget.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMirror()
			if err != nil {
				return err
			}

			b, done, err := m.SetBudget(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			awaitWrite(m, done, fmt.Sprintf("Set %s budget to %s", b.Category, b.MonthlyLimit))
			return nil
		},
	}
}

func deleteBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <category>",
		Short: "Remove the limit of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMirror()
			if err != nil {
				return err
			}

			done, err := m.DeleteBudget(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			awaitWrite(m, done, "Removed the "+args[0]+" budget")
			return nil
		},
	}
}
