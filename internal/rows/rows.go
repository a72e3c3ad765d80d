package rows

import "strings"

// Row is one raw service-call line item. Cells are positional; no schema is
// enforced at this layer.
type Row struct {
	Cells []string
}

func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[i])
}

// Grid is an ordered row collection with an optional header row already
// split off.
type Grid struct {
	Header []string
	Rows   []Row
}

func (g Grid) Empty() bool {
	return len(g.Rows) == 0
}

// FromMatrix builds a Grid from a 2D positional value grid, treating the
// first row as the header (spreadsheet sources).
func FromMatrix(values [][]string) Grid {
	if len(values) == 0 {
		return Grid{}
	}
	g := Grid{Header: values[0]}
	for _, cells := range values[1:] {
		g.Rows = append(g.Rows, Row{Cells: cells})
	}
	return g
}

// FromRecords builds a Grid from field-keyed records (table sources),
// ordering cells by the given header.
func FromRecords(header []string, records []map[string]string) Grid {
	g := Grid{Header: header}
	for _, record := range records {
		cells := make([]string, len(header))
		for i, name := range header {
			cells[i] = record[name]
		}
		g.Rows = append(g.Rows, Row{Cells: cells})
	}
	return g
}

// Columns maps the semantic roles the calculators read to positional
// indexes. A value of -1 means the grid has no such column.
type Columns struct {
	Date           int
	Job            int
	Department     int
	Description    int
	Amount         int
	EstimatedHours int
	ActualHours    int
	Duration       int
	TechPay        int
}

var columnAliases = map[string][]string{
	"date":       {"date", "invoice date", "service date", "created"},
	"job":        {"job", "job number", "job #", "invoice", "invoice number", "invoice #"},
	"department": {"department", "dept", "service category", "category"},
	"desc":       {"description", "line item", "item", "service", "task"},
	"amount":     {"amount", "total", "revenue", "price", "subtotal"},
	"est":        {"estimated hours", "estimated time", "est hours", "est time"},
	"act":        {"actual hours", "actual time"},
	"duration":   {"duration", "hours", "labor hours"},
	"techpay":    {"tech pay", "technician pay", "commission"},
}

// ResolveColumns matches header names against known aliases, falling back to
// the conventional positional layout (date, department, description, amount,
// job) when the header carries no recognizable names.
func ResolveColumns(header []string) Columns {
	cols := Columns{
		Date: -1, Job: -1, Department: -1, Description: -1, Amount: -1,
		EstimatedHours: -1, ActualHours: -1, Duration: -1, TechPay: -1,
	}
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		switch {
		case cols.Date < 0 && matchesAlias(name, "date"):
			cols.Date = i
		case cols.Job < 0 && matchesAlias(name, "job"):
			cols.Job = i
		case cols.Department < 0 && matchesAlias(name, "department"):
			cols.Department = i
		case cols.Description < 0 && matchesAlias(name, "desc"):
			cols.Description = i
		case cols.EstimatedHours < 0 && matchesAlias(name, "est"):
			cols.EstimatedHours = i
		case cols.ActualHours < 0 && matchesAlias(name, "act"):
			cols.ActualHours = i
		case cols.Duration < 0 && matchesAlias(name, "duration"):
			cols.Duration = i
		case cols.TechPay < 0 && matchesAlias(name, "techpay"):
			cols.TechPay = i
		case cols.Amount < 0 && matchesAlias(name, "amount"):
			cols.Amount = i
		}
	}

	// Positional fallbacks for headerless or unrecognized exports.
	if cols.Date < 0 && cols.Job < 0 && cols.Department < 0 && cols.Amount < 0 {
		cols.Date, cols.Department, cols.Description, cols.Amount, cols.Job = 0, 1, 2, 3, 4
	}
	return cols
}

func matchesAlias(name, role string) bool {
	for _, alias := range columnAliases[role] {
		if name == alias || strings.Contains(name, alias) {
			return true
		}
	}
	return false
}
