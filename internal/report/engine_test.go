package report_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orcamento/internal/core"
	"orcamento/internal/log"
	"orcamento/internal/report"
	"orcamento/internal/storage"
)

type stubStore struct {
	totals   []core.CategoryTotal
	monthly  []core.MonthlyTotal
	err      error
	gotMonth *core.Month
	gotFrom  core.Date
	gotTo    core.Date
}

func (s *stubStore) CategoryTotals(_ context.Context, month *core.Month) ([]core.CategoryTotal, error) {
	s.gotMonth = month
	return s.totals, s.err
}

func (s *stubStore) MonthlyTotals(_ context.Context, from, to core.Date) ([]core.MonthlyTotal, error) {
	s.gotFrom, s.gotTo = from, to
	return s.monthly, s.err
}

func money(cents int64) *core.Money {
	return &core.Money{Cents: cents}
}

func TestBuild(t *testing.T) {
	s := report.Build([]core.CategoryTotal{
		{Category: core.CategoryHousing, Total: core.Money{Cents: 200000}, Count: 1, Limit: money(150000)},
		{Category: core.CategoryFood, Total: core.Money{Cents: 12050}, Count: 3, Limit: money(150000)},
		{Category: core.CategoryLeisure, Total: core.Money{Cents: 5000}, Count: 2},
		{Category: core.CategoryOther, Total: core.Money{Cents: 100}, Count: 1, Limit: money(0)},
	})

	assert.Equal(t, int64(217150), s.GrandTotal.Cents)
	assert.Equal(t, int64(7), s.TxCount)

	var sum core.Money
	var count int64
	for _, row := range s.ByCategory {
		sum = sum.Add(row.Total)
		count += row.Count
	}
	assert.Equal(t, s.GrandTotal, sum)
	assert.Equal(t, s.TxCount, count)

	require.NotNil(t, s.ByCategory[0].BudgetPct)
	assert.InDelta(t, 133.3, float64(*s.ByCategory[0].BudgetPct), 1e-9)
	require.NotNil(t, s.ByCategory[1].BudgetPct)
	assert.InDelta(t, 8.0, float64(*s.ByCategory[1].BudgetPct), 1e-9)

	assert.Nil(t, s.ByCategory[2].BudgetPct, "no budget row")
	assert.Equal(t, int64(0), s.ByCategory[2].BudgetLimit.Cents)
	assert.Nil(t, s.ByCategory[3].BudgetPct, "zero limit")
}

func TestBuildEmpty(t *testing.T) {
	s := report.Build(nil)
	assert.Equal(t, int64(0), s.GrandTotal.Cents)
	assert.Equal(t, int64(0), s.TxCount)
	assert.NotNil(t, s.ByCategory)
}

func TestBudgetPctRounding(t *testing.T) {
	cases := []struct {
		total, limit int64
		want         float64
	}{
		{12050, 150000, 8.0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{150000, 150000, 100.0},
		{1, 100000000, 0.0},
	}
	for _, tc := range cases {
		got := report.BudgetPct(core.Money{Cents: tc.total}, core.Money{Cents: tc.limit})
		require.NotNil(t, got)
		assert.InDelta(t, tc.want, float64(*got), 1e-9)
	}
	assert.Nil(t, report.BudgetPct(core.Money{Cents: 100}, core.Money{}))
}

func TestSummaryMonthHandling(t *testing.T) {
	store := &stubStore{}
	engine := report.NewEngine(store)

	s, err := engine.Summary(context.Background(), "2024-03")
	require.NoError(t, err)
	require.NotNil(t, store.gotMonth)
	assert.Equal(t, "2024-03", store.gotMonth.String())
	assert.Equal(t, "2024-03", s.Month)

	for _, m := range []string{"", "2024-13", "March", "2024-3"} {
		s, err = engine.Summary(context.Background(), m)
		require.NoError(t, err)
		assert.Nil(t, store.gotMonth, m)
		assert.Empty(t, s.Month)
	}
}

func TestMalformedMonthIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Format: "json", Output: &buf, Level: slog.LevelWarn})
	engine := report.NewEngine(&stubStore{}, report.WithLogger(logger))

	_, err := engine.Summary(context.Background(), "March")
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, log.ComponentReport, rec[log.FieldComponent])
	assert.Equal(t, "March", rec[log.FieldMonth])
}

func TestSummaryStoreError(t *testing.T) {
	store := &stubStore{err: &core.StoreUnavailableError{Err: errors.New("connection refused")}}
	_, err := report.NewEngine(store).Summary(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrStoreUnavailable)
}

func TestTrendWindow(t *testing.T) {
	from, to := report.TrendWindow(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, "2023-04-01", from.String())
	assert.Equal(t, "2024-04-01", to.String())

	from, to = report.TrendWindow(time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, "2024-01-01", from.String())
	assert.Equal(t, "2025-01-01", to.String())
}

func TestMonthlyTrendUsesClock(t *testing.T) {
	store := &stubStore{monthly: []core.MonthlyTotal{{Month: "2024-03", Total: core.Money{Cents: 10}, Count: 1}}}
	engine := report.NewEngine(store, report.WithClock(func() time.Time {
		return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	}))

	rows, err := engine.MonthlyTrend(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "2023-04-01", store.gotFrom.String())
	assert.Equal(t, "2024-04-01", store.gotTo.String())
}

func TestSummaryScenario(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "report.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	ctx := context.Background()

	_, _, err = repo.UpsertExpense(ctx, core.Expense{
		ID:          "market",
		Description: "Market",
		Amount:      core.Money{Cents: 12050},
		Category:    core.CategoryFood,
		Date:        core.NewDate(2024, 3, 5),
	})
	require.NoError(t, err)
	_, err = repo.UpsertBudget(ctx, core.BudgetGoal{Category: core.CategoryFood, MonthlyLimit: core.Money{Cents: 150000}})
	require.NoError(t, err)

	s, err := report.NewEngine(repo).Summary(ctx, "2024-03")
	require.NoError(t, err)

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"month": "2024-03",
		"grand_total": 120.50,
		"tx_count": 1,
		"by_category": [
			{"category": "Alimentação", "total": 120.50, "count": 1, "budget_limit": 1500.00, "budget_pct": 8.0}
		]
	}`, string(b))
	assert.Contains(t, string(b), `"budget_pct":8.0`)
}
