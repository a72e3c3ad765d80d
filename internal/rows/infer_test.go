package rows

import (
	"testing"
	"time"
)

func TestParseCellDateLayouts(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  string
	}{
		{"slash", "1/5/2024", "2024-01-05"},
		{"iso", "2024-01-05", "2024-01-05"},
		{"dash", "1-5-2024", "2024-01-05"},
		{"slash ymd", "2024/01/05", "2024-01-05"},
		{"month name", "Jan 5, 2024", "2024-01-05"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseCellDate(tc.value)
			if !ok {
				t.Fatalf("ParseCellDate(%q) failed", tc.value)
			}
			if got.Format("2006-01-02") != tc.want {
				t.Fatalf("ParseCellDate(%q) = %v, want %s", tc.value, got, tc.want)
			}
		})
	}
}

func TestParseCellDateSerial(t *testing.T) {
	// 45292 = 2024-01-01 in the spreadsheet date system.
	got, ok := ParseCellDate("45292")
	if !ok {
		t.Fatal("serial should parse")
	}
	if got.Year() != 2024 || got.Month() != time.January || got.Day() != 1 {
		t.Fatalf("serial 45292 = %v, want 2024-01-01", got)
	}
}

func TestParseCellDateNeverPanicsOnGarbage(t *testing.T) {
	// "150" must not be a date: small numerics are amounts, not serials.
	for _, value := range []string{"", "  ", "n/a", "soon", "13/45/20222", "$1,200", "150"} {
		if _, ok := ParseCellDate(value); ok {
			t.Fatalf("ParseCellDate(%q) unexpectedly parsed", value)
		}
	}
}

func TestParseRowDateOutOfBounds(t *testing.T) {
	row := Row{Cells: []string{"2024-01-05"}}
	if _, ok := ParseRowDate(row, 5); ok {
		t.Fatal("out-of-bounds column should not parse")
	}
	if _, ok := ParseRowDate(row, -1); ok {
		t.Fatal("negative column should not parse")
	}
}

func TestFindDateColumn(t *testing.T) {
	g := FromMatrix([][]string{
		{"Job", "Date", "Amount"},
		{"J1", "1/5/2024", "$100"},
		{"J2", "1/6/2024", "$200"},
	})
	if col := FindDateColumn(g); col != 1 {
		t.Fatalf("FindDateColumn = %d, want 1", col)
	}

	none := FromMatrix([][]string{
		{"A", "B", "C", "D"},
		{"x", "y", "z", "1/5/2024"},
	})
	if col := FindDateColumn(none); col != -1 {
		t.Fatalf("columns beyond index 2 must not qualify, got %d", col)
	}

	if col := FindDateColumn(Grid{}); col != -1 {
		t.Fatalf("empty grid should yield -1, got %d", col)
	}
}

func TestClassifyColumn(t *testing.T) {
	cases := []struct {
		name   string
		values []string
		want   ColumnType
	}{
		{"empty", nil, ColumnEmpty},
		{"blanks only", []string{"", "  "}, ColumnEmpty},
		{"dates", []string{"1/1/2024", "2/2/2024", "3/3/2024"}, ColumnDate},
		{"two thirds dates is mixed", []string{"1/1/2024", "2/2/2024", "x"}, ColumnMixed},
		{"numbers", []string{"1", "2.5", "3,000"}, ColumnNumber},
		{"text", []string{"Jetting", "Camera", "Snake"}, ColumnText},
		{"mostly numbers", []string{"1", "2", "3", "4", "x"}, ColumnNumber},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyColumn(tc.values); got != tc.want {
				t.Fatalf("ClassifyColumn = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestParseMoney(t *testing.T) {
	cases := []struct {
		value string
		want  float64
	}{
		{"$12,000", 12000},
		{" 500 ", 500},
		{"$1,234.56", 1234.56},
		{"(200)", -200},
		{"", 0},
		{"n/a", 0},
		{"free", 0},
	}
	for _, tc := range cases {
		if got := ParseMoney(tc.value); got != tc.want {
			t.Fatalf("ParseMoney(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestParseNumberDistinguishesMissing(t *testing.T) {
	if _, ok := ParseNumber(""); ok {
		t.Fatal("blank should not be a number")
	}
	if v, ok := ParseNumber("0"); !ok || v != 0 {
		t.Fatal("zero should parse as present")
	}
}

func TestResolveColumnsByHeader(t *testing.T) {
	cols := ResolveColumns([]string{"Invoice Date", "Department", "Description", "Total", "Job #", "Hours", "Tech Pay"})
	if cols.Date != 0 || cols.Department != 1 || cols.Description != 2 || cols.Amount != 3 || cols.Job != 4 {
		t.Fatalf("unexpected column mapping: %+v", cols)
	}
	if cols.Duration != 5 || cols.TechPay != 6 {
		t.Fatalf("hours/tech pay not resolved: %+v", cols)
	}
}

func TestResolveColumnsPositionalFallback(t *testing.T) {
	cols := ResolveColumns([]string{"c0", "c1", "c2", "c3", "c4"})
	if cols.Date != 0 || cols.Department != 1 || cols.Description != 2 || cols.Amount != 3 || cols.Job != 4 {
		t.Fatalf("positional fallback mapping wrong: %+v", cols)
	}
}

func TestFromRecordsOrdersByHeader(t *testing.T) {
	g := FromRecords([]string{"date", "amount"}, []map[string]string{
		{"amount": "100", "date": "2024-01-05"},
	})
	if g.Rows[0].Cell(0) != "2024-01-05" || g.Rows[0].Cell(1) != "100" {
		t.Fatalf("record cells out of order: %+v", g.Rows[0])
	}
}
