package source

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"fieldmetrics-dashboard/internal/daterange"
	"fieldmetrics-dashboard/internal/rows"
	"fieldmetrics-dashboard/internal/utils"
)

// unfilteredFetchLimit bounds the fallback fetch used to distinguish "no
// data for this period" from an empty or misconfigured table.
const unfilteredFetchLimit = 500

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Querier is the slice of pgxpool.Pool the table source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// TableSource reads field-keyed line-item records from a Postgres table,
// range-filtered on the configured date column.
type TableSource struct {
	cfg Config
	db  Querier
}

func NewTableSource(cfg Config, db Querier) (*TableSource, error) {
	if db == nil {
		return nil, newError(cfg.ID, KindConfigMissing, errors.New("database not configured"))
	}
	if !identifierPattern.MatchString(cfg.Table) {
		return nil, newError(cfg.ID, KindBadRequest, fmt.Errorf("invalid table name %q", cfg.Table))
	}
	if cfg.DateColumn != "" && !identifierPattern.MatchString(cfg.DateColumn) {
		return nil, newError(cfg.ID, KindBadRequest, fmt.Errorf("invalid date column %q", cfg.DateColumn))
	}
	return &TableSource{cfg: cfg, db: db}, nil
}

func (s *TableSource) Config() Config { return s.cfg }

func (s *TableSource) Fetch(ctx context.Context, dr daterange.Range) (rows.Grid, error) {
	if s.cfg.DateColumn != "" {
		query := fmt.Sprintf(
			`select * from %s where %s >= $1 and %s <= $2 order by %s`,
			s.cfg.Table, s.cfg.DateColumn, s.cfg.DateColumn, s.cfg.DateColumn,
		)
		grid, err := s.query(ctx, query, dr.Start, dr.End)
		if err != nil {
			return rows.Grid{}, err
		}
		if !grid.Empty() {
			return grid, nil
		}
		// Empty period: probe unfiltered so the caller can tell an idle
		// period apart from a misconfigured table.
		probe, err := s.query(ctx, fmt.Sprintf(`select * from %s limit %d`, s.cfg.Table, unfilteredFetchLimit))
		if err != nil {
			return rows.Grid{}, err
		}
		if probe.Empty() {
			return rows.Grid{}, newError(s.cfg.ID, KindMalformed, fmt.Errorf("table %s is empty", s.cfg.Table))
		}
		return grid, newError(s.cfg.ID, KindNoData, fmt.Errorf("no rows between %s and %s", dr.Start.Format("2006-01-02"), dr.End.Format("2006-01-02")))
	}

	return s.query(ctx, fmt.Sprintf(`select * from %s limit %d`, s.cfg.Table, unfilteredFetchLimit))
}

func (s *TableSource) query(ctx context.Context, sql string, args ...any) (rows.Grid, error) {
	result, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return rows.Grid{}, s.classify(err)
	}
	defer result.Close()

	fields := result.FieldDescriptions()
	header := make([]string, len(fields))
	for i, field := range fields {
		header[i] = field.Name
	}

	grid := rows.Grid{Header: header}
	for result.Next() {
		values, err := result.Values()
		if err != nil {
			continue
		}
		cells := make([]string, len(values))
		for i, value := range values {
			cells[i] = stringifyValue(value)
		}
		grid.Rows = append(grid.Rows, rows.Row{Cells: cells})
	}
	if err := result.Err(); err != nil {
		return rows.Grid{}, s.classify(err)
	}
	return grid, nil
}

func (s *TableSource) classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42P01": // undefined_table
			return newError(s.cfg.ID, KindNotFound, err)
		case pgErr.Code == "42703": // undefined_column
			return newError(s.cfg.ID, KindBadRequest, err)
		case pgErr.Code == "28P01" || pgErr.Code == "28000": // auth failures
			return newError(s.cfg.ID, KindRejected, err)
		}
		return newError(s.cfg.ID, KindBadRequest, err)
	}
	return newError(s.cfg.ID, KindUnreachable, err)
}

func stringifyValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format("2006-01-02")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case bool:
		return strconv.FormatBool(v)
	case pgtype.Numeric:
		return strconv.FormatFloat(utils.NumericToFloat64(v), 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
