package core

import "testing"

func mkRecord(id string, t RecordType, cat string, amount Amount, date string) Record {
	return Record{ID: id, Type: t, Category: cat, Amount: amount, Date: MustParseDate(date)}
}

func TestSummarize(t *testing.T) {
	s := Summarize(nil)
	if s != (Summary{}) {
		t.Fatalf("empty set must summarize to zero, got %+v", s)
	}

	s = Summarize([]Record{mkRecord("a", Expense, "식비", 12000, "2024-03-01")})
	if s.Income != 0 || s.Expense != 12000 || s.Total != -12000 {
		t.Fatalf("unexpected summary %+v", s)
	}

	s = Summarize([]Record{
		mkRecord("a", Income, "급여", 3000000, "2024-03-01"),
		mkRecord("b", Expense, "식비", 12000, "2024-03-02"),
		mkRecord("c", Expense, "교통", 1500, "2024-03-02"),
	})
	if s.Total != s.Income-s.Expense || s.Income != 3000000 || s.Expense != 13500 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	records := []Record{
		mkRecord("1", Expense, "식비", 5000, "2024-03-01"),
		mkRecord("2", Expense, "교통", 3000, "2024-03-01"),
		mkRecord("3", Expense, "식비", 5000, "2024-03-02"),
		mkRecord("4", Expense, "쇼핑", 1000, "2024-03-02"),
		mkRecord("5", Expense, "의료", 500, "2024-03-02"),
		mkRecord("6", Expense, "교육", 300, "2024-03-03"),
		mkRecord("7", Expense, "기타", 200, "2024-03-03"),
		mkRecord("8", Income, "급여", 99999, "2024-03-03"),
	}

	got := CategoryBreakdown(records, DefaultTopCategories)
	if len(got) != 5 {
		t.Fatalf("expected top 5, got %d", len(got))
	}
	if got[0].Name != "식비" || got[0].Amount != 10000 {
		t.Fatalf("unexpected first group %+v", got[0])
	}
	for i := 1; i < len(got); i++ {
		if got[i].Amount > got[i-1].Amount {
			t.Fatalf("breakdown not sorted descending: %+v", got)
		}
	}
	// total expense is 20000, income is ignored
	if got[0].Percent != 50 || got[1].Percent != 15 {
		t.Fatalf("unexpected percentages %+v", got[:2])
	}

	all := CategoryBreakdown(records, 0)
	if len(all) != 7 {
		t.Fatalf("topN <= 0 keeps every group, got %d", len(all))
	}
}

func TestCategoryBreakdownTies(t *testing.T) {
	got := CategoryBreakdown([]Record{
		mkRecord("1", Expense, "쇼핑", 100, "2024-03-01"),
		mkRecord("2", Expense, "교통", 100, "2024-03-01"),
	}, 0)
	if got[0].Name != "교통" || got[1].Name != "쇼핑" {
		t.Fatalf("ties must be ordered by name, got %+v", got)
	}
}

func TestCategoryPercentZeroTotal(t *testing.T) {
	got := CategoryBreakdown([]Record{
		mkRecord("1", Expense, "식비", 0, "2024-03-01"),
		mkRecord("2", Expense, "교통", 0, "2024-03-01"),
	}, 0)
	for _, c := range got {
		if c.Percent != 0 {
			t.Fatalf("zero total must give 0%%, got %+v", c)
		}
	}
	if Percent(10, 0) != 0 {
		t.Fatalf("Percent with zero total must be 0")
	}
	if Percent(1, 3) != 33.3 {
		t.Fatalf("Percent rounding, got %v", Percent(1, 3))
	}
}

func TestOverview(t *testing.T) {
	records := []Record{
		mkRecord("jan", Income, "급여", 5000, "2024-01-10"),
		mkRecord("feb", Expense, "쇼핑", 3000, "2024-02-10"),
		mkRecord("feb-prev-year", Expense, "쇼핑", 9999, "2023-02-10"),
	}
	ov := Overview(records, 2024, 2)
	if ov.Year != 2024 || ov.Month != 2 {
		t.Fatalf("unexpected period %+v", ov)
	}
	if ov.Summary.Expense != 3000 || ov.Summary.Income != 0 {
		t.Fatalf("unexpected summary %+v", ov.Summary)
	}
	if len(ov.ByCategory) != 1 || ov.ByCategory[0].Percent != 100 {
		t.Fatalf("unexpected breakdown %+v", ov.ByCategory)
	}
}
