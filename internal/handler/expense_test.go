package handler

import (
	"testing"

	"github.com/Cansyell/laundrybackend/internal/repository"
	"github.com/shopspring/decimal"
)

func TestFillMonthsAlwaysTwelveRows(t *testing.T) {
	rows := fillMonths(nil)
	if len(rows) != 12 {
		t.Fatalf("expected 12 rows, got %d", len(rows))
	}
	for i, row := range rows {
		if row.Month != i+1 {
			t.Fatalf("row %d: expected month %d, got %d", i, i+1, row.Month)
		}
		if !row.Total.IsZero() || row.Count != 0 {
			t.Fatalf("month %d: expected zero-filled row, got total=%s count=%d", row.Month, row.Total, row.Count)
		}
	}
	if rows[0].MonthName != "January" || rows[11].MonthName != "December" {
		t.Fatalf("unexpected month names: %s .. %s", rows[0].MonthName, rows[11].MonthName)
	}
}

func TestFillMonthsMergesBuckets(t *testing.T) {
	buckets := []repository.MonthBucket{
		{Month: 3, Total: decimal.RequireFromString("150.75"), Count: 4},
		{Month: 11, Total: decimal.RequireFromString("20.00"), Count: 1},
	}
	rows := fillMonths(buckets)
	if len(rows) != 12 {
		t.Fatalf("expected 12 rows, got %d", len(rows))
	}
	if !rows[2].Total.Equal(decimal.RequireFromString("150.75")) || rows[2].Count != 4 {
		t.Fatalf("march: got total=%s count=%d", rows[2].Total, rows[2].Count)
	}
	if !rows[10].Total.Equal(decimal.RequireFromString("20.00")) || rows[10].Count != 1 {
		t.Fatalf("november: got total=%s count=%d", rows[10].Total, rows[10].Count)
	}
	if !rows[0].Total.IsZero() || rows[0].Count != 0 {
		t.Fatalf("january should stay zero-filled, got total=%s count=%d", rows[0].Total, rows[0].Count)
	}
}

func TestExpensePayloadCheck(t *testing.T) {
	p := expensePayload{Amount: decimal.Zero, Date: "15-01-2026"}
	errs := p.check()
	if errs == nil {
		t.Fatalf("expected validation errors")
	}
	if _, ok := errs["amount"]; !ok {
		t.Fatalf("expected amount error, got %v", errs)
	}
	if _, ok := errs["date"]; !ok {
		t.Fatalf("expected date format error, got %v", errs)
	}

	good := expensePayload{Amount: decimal.RequireFromString("50.00"), Date: "2026-01-15"}
	if errs := good.check(); errs != nil {
		t.Fatalf("expected no errors, got %v", errs)
	}
}
