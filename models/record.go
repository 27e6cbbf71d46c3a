package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one spreadsheet row keyed by column name. A missing key and an empty
// value both mean the cell is absent.
type Row map[string]string

func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Record is a pending-table row: an opaque descriptive payload plus the
// workflow fields. Processing, AssignedTo and ProcessingTimestamp are only
// changed together through Assign and Release.
type Record struct {
	Values Row

	Processed           bool
	Processing          bool
	AssignedTo          string
	ProcessingTimestamp *time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/06 15:04",
	"01-02-06 15:04",
}

// RecordFromRow splits a raw pending row into payload and workflow fields.
// Unparsable timestamps are treated as absent.
func RecordFromRow(row Row) *Record {
	rec := &Record{Values: Row{}}
	for col, v := range row {
		if !isWorkflowColumn(col) {
			rec.Values[col] = v
		}
	}
	rec.Processed = parseBool(row[ColumnProcessed])
	rec.Processing = parseBool(row[ColumnProcessing])
	rec.AssignedTo = strings.TrimSpace(row[ColumnAssignedTo])
	if strings.EqualFold(rec.AssignedTo, "nan") || strings.EqualFold(rec.AssignedTo, "none") {
		rec.AssignedTo = ""
	}
	rec.ProcessingTimestamp = parseTimestamp(row[ColumnProcessingTimestamp])
	return rec
}

// RecordFromFinalized builds an unassigned, unprocessed record from a finalized row.
func RecordFromFinalized(row Row) *Record {
	return &Record{Values: row.Clone()}
}

// Row encodes the record back into raw cells.
func (r *Record) Row() Row {
	out := r.Values.Clone()
	out[ColumnProcessed] = formatBool(r.Processed)
	out[ColumnProcessing] = formatBool(r.Processing)
	out[ColumnAssignedTo] = r.AssignedTo
	out[ColumnProcessingTimestamp] = ""
	if r.ProcessingTimestamp != nil {
		out[ColumnProcessingTimestamp] = r.ProcessingTimestamp.UTC().Format(time.RFC3339Nano)
	}
	return out
}

func (r *Record) Clone() *Record {
	c := *r
	c.Values = r.Values.Clone()
	if r.ProcessingTimestamp != nil {
		ts := *r.ProcessingTimestamp
		c.ProcessingTimestamp = &ts
	}
	return &c
}

func (r *Record) Sku() string {
	return strings.TrimSpace(r.Values[ColumnSku])
}

func (r *Record) Get(col string) string {
	return r.Values[col]
}

func (r *Record) Set(col, value string) {
	r.Values[col] = value
}

// Eligible reports whether the record may be checked out. Rows without a sku
// are carried through saves but never handed out.
func (r *Record) Eligible() bool {
	return !r.Processed && !r.Processing && r.Sku() != ""
}

// OwnedBy reports whether worker currently holds the assignment.
func (r *Record) OwnedBy(worker string) bool {
	return worker != "" && r.Processing && r.AssignedTo == worker
}

func (r *Record) Assign(worker string, at time.Time) {
	ts := at.UTC()
	r.Processing = true
	r.AssignedTo = worker
	r.ProcessingTimestamp = &ts
}

func (r *Record) Release() {
	r.Processing = false
	r.AssignedTo = ""
	r.ProcessingTimestamp = nil
}

// IsStale reports whether an assignment has outlived timeout. An assignment
// without a timestamp can never expire on its own, so it counts as stale.
func (r *Record) IsStale(now time.Time, timeout time.Duration) bool {
	if !r.Processing {
		return false
	}
	if r.ProcessingTimestamp == nil {
		return true
	}
	return r.ProcessingTimestamp.Before(now.Add(-timeout))
}

// Finalize projects the payload onto the finalized column set.
func (r *Record) Finalize() Row {
	out := make(Row, len(FinalizedColumns))
	for _, col := range FinalizedColumns {
		out[col] = r.Values[col]
	}
	return out
}

// ConfidenceScore returns the parsed confidence score, false when absent or unparsable.
func (r *Record) ConfidenceScore() (decimal.Decimal, bool) {
	raw := strings.TrimSpace(r.Values[ColumnConfidenceScore])
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func formatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func parseTimestamp(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nat") {
		return nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			ts = ts.UTC()
			return &ts
		}
	}
	return nil
}
