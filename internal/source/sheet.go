package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/xuri/excelize/v2"

	"fieldmetrics-dashboard/internal/daterange"
	"fieldmetrics-dashboard/internal/rows"
)

// ObjectGetter is the slice of the object store the sheet source needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// SheetSource reads a spreadsheet workbook from the object store and
// materializes the configured address range as a positional grid with the
// first row as header.
type SheetSource struct {
	cfg   Config
	store ObjectGetter
}

func NewSheetSource(cfg Config, store ObjectGetter) (*SheetSource, error) {
	if strings.TrimSpace(cfg.WorkbookKey) == "" {
		return nil, newError(cfg.ID, KindConfigMissing, errors.New("workbook key is empty"))
	}
	if store == nil {
		return nil, newError(cfg.ID, KindConfigMissing, errors.New("object store not configured"))
	}
	if _, err := parseAddressRange(cfg.Range); err != nil {
		return nil, newError(cfg.ID, KindBadRequest, err)
	}
	return &SheetSource{cfg: cfg, store: store}, nil
}

func (s *SheetSource) Config() Config { return s.cfg }

// Fetch downloads and windows the workbook. Date filtering happens upstream;
// sheets have no server-side range query. Network-class failures get one
// retry with a short backoff.
func (s *SheetSource) Fetch(ctx context.Context, _ daterange.Range) (rows.Grid, error) {
	data, err := s.getWithRetry(ctx)
	if err != nil {
		return rows.Grid{}, err
	}

	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return rows.Grid{}, newError(s.cfg.ID, KindMalformed, err)
	}
	defer book.Close()

	window, err := parseAddressRange(s.cfg.Range)
	if err != nil {
		return rows.Grid{}, newError(s.cfg.ID, KindBadRequest, err)
	}

	sheet := window.sheet
	if sheet == "" {
		sheet = book.GetSheetName(0)
	}
	matrix, err := book.GetRows(sheet)
	if err != nil {
		return rows.Grid{}, newError(s.cfg.ID, KindBadRequest, fmt.Errorf("sheet %q: %w", sheet, err))
	}

	return rows.FromMatrix(window.apply(matrix)), nil
}

func (s *SheetSource) getWithRetry(ctx context.Context) ([]byte, error) {
	data, err := s.store.GetObject(ctx, s.cfg.WorkbookKey)
	if err == nil {
		return data, nil
	}
	tagged := s.classify(err)
	if !Retryable(tagged) {
		return nil, tagged
	}
	select {
	case <-ctx.Done():
		return nil, tagged
	case <-time.After(500 * time.Millisecond):
	}
	data, err = s.store.GetObject(ctx, s.cfg.WorkbookKey)
	if err != nil {
		return nil, s.classify(err)
	}
	return data, nil
}

func (s *SheetSource) classify(err error) error {
	var noKey *types.NoSuchKey
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noKey) || errors.As(err, &noBucket) {
		return newError(s.cfg.ID, KindNotFound, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return newError(s.cfg.ID, KindRejected, err)
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return newError(s.cfg.ID, KindNotFound, err)
		case "InvalidRequest", "InvalidArgument":
			return newError(s.cfg.ID, KindBadRequest, err)
		}
	}
	return newError(s.cfg.ID, KindUnreachable, err)
}

// addressRange is a parsed "Sheet1!A1:K500" window. Zero bounds mean
// unbounded on that side.
type addressRange struct {
	sheet    string
	startCol int
	startRow int
	endCol   int
	endRow   int
}

func parseAddressRange(raw string) (addressRange, error) {
	out := addressRange{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out, nil
	}

	if i := strings.IndexByte(raw, '!'); i >= 0 {
		out.sheet = strings.Trim(raw[:i], "'")
		raw = raw[i+1:]
	}
	if raw == "" {
		return out, nil
	}

	start, end, _ := strings.Cut(raw, ":")
	var err error
	out.startCol, out.startRow, err = excelize.CellNameToCoordinates(strings.TrimSpace(start))
	if err != nil {
		return out, fmt.Errorf("address range %q: %w", raw, err)
	}
	if end != "" {
		out.endCol, out.endRow, err = excelize.CellNameToCoordinates(strings.TrimSpace(end))
		if err != nil {
			return out, fmt.Errorf("address range %q: %w", raw, err)
		}
		if out.endCol < out.startCol || out.endRow < out.startRow {
			return out, fmt.Errorf("address range %q: end before start", raw)
		}
	}
	return out, nil
}

// apply windows the raw matrix to the configured bounds. Coordinates from
// excelize are 1-based.
func (w addressRange) apply(matrix [][]string) [][]string {
	if w.startRow == 0 && w.startCol == 0 && w.endRow == 0 && w.endCol == 0 {
		return matrix
	}
	startRow := w.startRow
	if startRow < 1 {
		startRow = 1
	}
	endRow := w.endRow
	if endRow == 0 || endRow > len(matrix) {
		endRow = len(matrix)
	}
	if startRow > len(matrix) {
		return nil
	}

	out := make([][]string, 0, endRow-startRow+1)
	for _, cells := range matrix[startRow-1 : endRow] {
		startCol := w.startCol
		if startCol < 1 {
			startCol = 1
		}
		endCol := w.endCol
		if endCol == 0 || endCol > len(cells) {
			endCol = len(cells)
		}
		if startCol > len(cells) {
			out = append(out, nil)
			continue
		}
		out = append(out, cells[startCol-1:endCol])
	}
	return out
}
