package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"orcamento/internal/core"
	ports "orcamento/internal/sheets"
)

const (
	defaultExpensesSheet = "Expenses"
	defaultBudgetsSheet  = "Budgets"
	expenseLastCol       = "G"
	budgetLastCol        = "C"
)

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID   string
	ExpensesSheet   string
	BudgetsSheet    string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	expensesSheet string
	budgetsSheet  string
}

var _ ports.Exporter = (*Client)(nil)

// New creates a Sheets exporter authenticated with service-account
// credentials. Extra options are appended after the credentials.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	var clientOpts []goption.ClientOption
	if len(opts) == 0 {
		creds, err := loadCredentials(cfg)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts,
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets exporter ready", "spreadsheet_id", cfg.SpreadsheetID)

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		expensesSheet: orDefault(cfg.ExpensesSheet, defaultExpensesSheet),
		budgetsSheet:  orDefault(cfg.BudgetsSheet, defaultBudgetsSheet),
	}, nil
}

// loadCredentials reads inline JSON first, then the file, then the standard
// GOOGLE_APPLICATION_CREDENTIALS path.
func loadCredentials(cfg Config) ([]byte, error) {
	if j := strings.TrimSpace(cfg.CredentialsJSON); j != "" {
		return []byte(j), nil
	}
	path := strings.TrimSpace(cfg.CredentialsFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// UpsertExpense overwrites the row whose column A holds e.ID, or appends one.
func (c *Client) UpsertExpense(ctx context.Context, e core.Expense) error {
	row, err := c.findExpenseRow(ctx, e.ID)
	if err != nil {
		return err
	}

	vr := &gsheet.ValueRange{Values: [][]any{ExpenseRow(e)}}
	if row > 0 {
		rng := fmt.Sprintf("%s!A%d:%s%d", c.expensesSheet, row, expenseLastCol, row)
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
		return nil
	}

	rng := fmt.Sprintf("%s!A:%s", c.expensesSheet, expenseLastCol)
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.expensesSheet, err)
	}
	return nil
}

// DeleteExpense clears the row for id. Blank rows are compacted by the next
// ReplaceExpenses.
func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	row, err := c.findExpenseRow(ctx, id)
	if err != nil {
		return err
	}
	if row == 0 {
		return nil
	}
	rng := fmt.Sprintf("%s!A%d:%s%d", c.expensesSheet, row, expenseLastCol, row)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

// ReplaceExpenses rewrites the whole expense table.
func (c *Client) ReplaceExpenses(ctx context.Context, expenses []core.Expense) error {
	rows := make([][]any, 0, len(expenses)+1)
	rows = append(rows, header(ports.ExpenseHeader))
	for _, e := range expenses {
		rows = append(rows, ExpenseRow(e))
	}
	return c.replace(ctx, c.expensesSheet, expenseLastCol, rows)
}

// ReplaceBudgets rewrites the whole budget table.
func (c *Client) ReplaceBudgets(ctx context.Context, budgets []core.BudgetGoal) error {
	rows := make([][]any, 0, len(budgets)+1)
	rows = append(rows, header(ports.BudgetHeader))
	for _, b := range budgets {
		rows = append(rows, BudgetRow(b))
	}
	return c.replace(ctx, c.budgetsSheet, budgetLastCol, rows)
}

func (c *Client) replace(ctx context.Context, sheet, lastCol string, rows [][]any) error {
	clearRng := fmt.Sprintf("%s!A:%s", sheet, lastCol)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRng, err)
	}
	rng := fmt.Sprintf("%s!A1:%s%d", sheet, lastCol, len(rows))
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// findExpenseRow returns the 1-based row holding id in column A, or 0.
func (c *Client) findExpenseRow(ctx context.Context, id string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", c.expensesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	return findRow(resp.Values, id), nil
}

func findRow(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

// ExpenseRow renders e in ExpenseHeader column order.
func ExpenseRow(e core.Expense) []any {
	recurring := "no"
	if e.IsRecurring {
		recurring = "yes"
	}
	return []any{
		e.ID,
		e.Date.String(),
		e.Description,
		e.Amount.String(),
		string(e.Category),
		recurring,
		e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// BudgetRow renders b in BudgetHeader column order.
func BudgetRow(b core.BudgetGoal) []any {
	return []any{string(b.Category), b.MonthlyLimit.String(), b.UpdatedAt.UTC().Format(time.RFC3339)}
}

func header(cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
