package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"orcamento/internal/core"
	ports "orcamento/internal/sheets"
)

// fakeSheets serves the subset of the values API the exporter uses.
type fakeSheets struct {
	mu     sync.Mutex
	sheets map[string][][]string
	calls  []string
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{sheets: map[string][][]string{}}
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	const prefix = "/v4/spreadsheets/sheet-id/values/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.Error(w, "unexpected path "+r.URL.Path, http.StatusNotFound)
		return
	}
	rng := strings.TrimPrefix(r.URL.Path, prefix)

	switch {
	case r.Method == http.MethodGet:
		f.calls = append(f.calls, "get "+rng)
		sheet, _ := splitRange(rng)
		var col [][]any
		for _, row := range f.sheets[sheet] {
			if len(row) == 0 {
				col = append(col, []any{})
				continue
			}
			col = append(col, []any{row[0]})
		}
		writeJSON(w, map[string]any{"range": rng, "values": col})

	case r.Method == http.MethodPut:
		f.calls = append(f.calls, "update "+rng)
		sheet, start := splitRange(rng)
		rows := decodeRows(r)
		for len(f.sheets[sheet]) < start-1+len(rows) {
			f.sheets[sheet] = append(f.sheets[sheet], nil)
		}
		for i, row := range rows {
			f.sheets[sheet][start-1+i] = row
		}
		writeJSON(w, map[string]any{})

	case strings.HasSuffix(rng, ":append"):
		rng = strings.TrimSuffix(rng, ":append")
		f.calls = append(f.calls, "append "+rng)
		sheet, _ := splitRange(rng)
		f.sheets[sheet] = append(f.sheets[sheet], decodeRows(r)...)
		writeJSON(w, map[string]any{})

	case strings.HasSuffix(rng, ":clear"):
		rng = strings.TrimSuffix(rng, ":clear")
		f.calls = append(f.calls, "clear "+rng)
		sheet, start := splitRange(rng)
		if start == 0 {
			f.sheets[sheet] = nil
		} else if start <= len(f.sheets[sheet]) {
			f.sheets[sheet][start-1] = nil
		}
		writeJSON(w, map[string]any{})

	default:
		http.Error(w, "unexpected request", http.StatusBadRequest)
	}
}

func (f *fakeSheets) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeSheets) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeSheets) rows(sheet string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.sheets[sheet]...)
}

// splitRange returns the sheet name and the first row number, 0 when the
// range covers whole columns.
func splitRange(rng string) (string, int) {
	sheet, cells, _ := strings.Cut(rng, "!")
	first, _, _ := strings.Cut(cells, ":")
	digits := strings.TrimLeft(first, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	n, _ := strconv.Atoi(digits)
	return sheet, n
}

func decodeRows(r *http.Request) [][]string {
	var body struct {
		Values [][]any `json:"values"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	out := make([][]string, len(body.Values))
	for i, row := range body.Values {
		for _, v := range row {
			out[i] = append(out[i], fmt.Sprint(v))
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := newFakeSheets()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-id"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	require.NoError(t, err)
	return c, fake
}

func testExpense(id, desc string, cents int64) core.Expense {
	ts := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	return core.Expense{
		ID:          id,
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Category:    core.CategoryFood,
		Date:        core.NewDate(2024, 3, 5),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}

func TestNewRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestUpsertExpenseAppendsThenUpdatesInPlace(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.UpsertExpense(ctx, testExpense("a", "Market", 12050)))
	require.NoError(t, c.UpsertExpense(ctx, testExpense("b", "Bakery", 800)))
	require.NoError(t, c.UpsertExpense(ctx, testExpense("a", "Market (fixed)", 12100)))

	rows := fake.rows("Expenses")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "2024-03-05", "Market (fixed)", "121.00", "Alimentação", "no", "2024-03-05T10:00:00Z"}, rows[0])
	assert.Equal(t, "b", rows[1][0])
}

func TestDeleteExpense(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.UpsertExpense(ctx, testExpense("a", "Market", 12050)))
	require.NoError(t, c.DeleteExpense(ctx, "a"))
	assert.Empty(t, fake.rows("Expenses")[0])

	fake.resetCalls()
	require.NoError(t, c.DeleteExpense(ctx, "missing"))
	assert.Equal(t, []string{"get Expenses!A:A"}, fake.callLog(), "missing row is a no-op")
}

func TestReplaceBudgetsWritesHeader(t *testing.T) {
	c, fake := newTestClient(t)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, c.ReplaceBudgets(context.Background(), []core.BudgetGoal{
		{Category: core.CategoryFood, MonthlyLimit: core.Money{Cents: 150000}, UpdatedAt: ts},
		{Category: core.CategoryLeisure, MonthlyLimit: core.Money{Cents: 0}, UpdatedAt: ts},
	}))

	rows := fake.rows("Budgets")
	require.Len(t, rows, 3)
	assert.Equal(t, ports.BudgetHeader, rows[0])
	assert.Equal(t, []string{"Alimentação", "1500.00", "2024-01-01T00:00:00Z"}, rows[1])
	assert.Equal(t, "0.00", rows[2][1])
}

func TestReplaceExpensesCompactsSheet(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.UpsertExpense(ctx, testExpense("a", "Market", 100)))
	require.NoError(t, c.UpsertExpense(ctx, testExpense("b", "Bakery", 200)))
	require.NoError(t, c.DeleteExpense(ctx, "a"))

	require.NoError(t, c.ReplaceExpenses(ctx, []core.Expense{testExpense("b", "Bakery", 200)}))

	rows := fake.rows("Expenses")
	require.Len(t, rows, 2)
	assert.Equal(t, ports.ExpenseHeader, rows[0])
	assert.Equal(t, "b", rows[1][0])
}

func TestFindRow(t *testing.T) {
	values := [][]any{{"ID"}, {}, {"abc"}, {" def "}}
	assert.Equal(t, 3, findRow(values, "abc"))
	assert.Equal(t, 4, findRow(values, "def"))
	assert.Equal(t, 0, findRow(values, "zzz"))
}
