package source

import (
	"context"
	"errors"
	"fmt"

	"fieldmetrics-dashboard/internal/daterange"
	"fieldmetrics-dashboard/internal/rows"
)

// Role declares what a source's rows feed.
type Role string

const (
	RoleKPI        Role = "kpi"
	RoleTimeSeries Role = "timeseries"
	RoleRaw        Role = "raw"
)

func ParseRole(value string) Role {
	switch Role(value) {
	case RoleTimeSeries:
		return RoleTimeSeries
	case RoleRaw:
		return RoleRaw
	default:
		return RoleKPI
	}
}

// Config describes one configured data source. Sheet sources use WorkbookKey
// and Range; table sources use Table and DateColumn.
type Config struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Role   Role   `json:"role"`

	// LineItem marks the high-detail line-item source whose install,
	// jetting and descaling figures override the base aggregation.
	LineItem bool `json:"lineItem"`

	WorkbookKey string `json:"workbookKey,omitempty"`
	Range       string `json:"range,omitempty"`

	Table      string `json:"table,omitempty"`
	DateColumn string `json:"dateColumn,omitempty"`
}

// Source is the narrow read contract the aggregator consumes.
type Source interface {
	Config() Config
	Fetch(ctx context.Context, dr daterange.Range) (rows.Grid, error)
}

// Kind is the distinguishable error taxonomy. Remediation hints belong to
// the presentation layer; only the kind is engine-visible.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfigMissing
	KindUnreachable
	KindRejected
	KindNotFound
	KindBadRequest
	KindMalformed
	KindNoData
)

func (k Kind) String() string {
	switch k {
	case KindConfigMissing:
		return "configuration-missing"
	case KindUnreachable:
		return "source-unreachable"
	case KindRejected:
		return "source-rejected"
	case KindNotFound:
		return "source-not-found"
	case KindBadRequest:
		return "bad-request"
	case KindMalformed:
		return "source-malformed"
	case KindNoData:
		return "no-data-in-range"
	default:
		return "unknown"
	}
}

// Error tags a fetch failure with its source id and kind.
type Error struct {
	SourceID string
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("source %s: %s: %v", e.SourceID, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(sourceID string, kind Kind, err error) *Error {
	return &Error{SourceID: sourceID, Kind: kind, Err: err}
}

// KindOf extracts the error kind, KindUnknown for untagged errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// Retryable reports whether a failure class is worth a bounded retry.
// Parsing and authorization failures never retry.
func Retryable(err error) bool {
	return KindOf(err) == KindUnreachable
}
