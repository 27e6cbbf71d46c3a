package models

// Snapshot is a whole table as stored: an ordered column set and its rows.
type Snapshot struct {
	Columns []string
	Rows    []Row
}

func NewSnapshot(columns []string) *Snapshot {
	return &Snapshot{Columns: append([]string{}, columns...)}
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

func (s *Snapshot) Append(row Row) {
	s.Rows = append(s.Rows, row)
	s.ensureColumns(row)
}

// RemoveSku drops every row carrying sku and reports how many were removed.
func (s *Snapshot) RemoveSku(sku string) int {
	kept := s.Rows[:0]
	removed := 0
	for _, row := range s.Rows {
		if (&Record{Values: row}).Sku() == sku {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	s.Rows = kept
	return removed
}

func (s *Snapshot) ensureColumns(row Row) {
	known := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		known[c] = struct{}{}
	}
	for _, c := range FinalizedColumns {
		if _, ok := row[c]; !ok {
			continue
		}
		if _, ok := known[c]; !ok {
			s.Columns = append(s.Columns, c)
			known[c] = struct{}{}
		}
	}
}

// PendingTable is the decoded pending snapshot. Decoding adds missing
// workflow columns so every record carries the full workflow state.
type PendingTable struct {
	Columns []string
	Records []*Record
}

func PendingFromSnapshot(s *Snapshot) *PendingTable {
	t := &PendingTable{Columns: append([]string{}, s.Columns...)}
	for _, col := range WorkflowColumns {
		if !containsColumn(t.Columns, col) {
			t.Columns = append(t.Columns, col)
		}
	}
	t.Records = make([]*Record, 0, len(s.Rows))
	for _, row := range s.Rows {
		t.Records = append(t.Records, RecordFromRow(row))
	}
	return t
}

func (t *PendingTable) Snapshot() *Snapshot {
	s := NewSnapshot(t.Columns)
	s.Rows = make([]Row, 0, len(t.Records))
	for _, rec := range t.Records {
		s.Rows = append(s.Rows, rec.Row())
	}
	return s
}

func (t *PendingTable) Find(sku string) (*Record, int) {
	for i, rec := range t.Records {
		if rec.Sku() == sku {
			return rec, i
		}
	}
	return nil, -1
}

func (t *PendingTable) Remove(sku string) {
	kept := t.Records[:0]
	for _, rec := range t.Records {
		if rec.Sku() != sku {
			kept = append(kept, rec)
		}
	}
	t.Records = kept
}

// Upsert replaces the record with the same sku or appends it.
func (t *PendingTable) Upsert(rec *Record) {
	if _, i := t.Find(rec.Sku()); i >= 0 {
		t.Records[i] = rec
		return
	}
	t.Records = append(t.Records, rec)
	for col := range rec.Values {
		if !containsColumn(t.Columns, col) {
			t.Columns = append(t.Columns, col)
		}
	}
}

func (t *PendingTable) Clone() *PendingTable {
	c := &PendingTable{
		Columns: append([]string{}, t.Columns...),
		Records: make([]*Record, len(t.Records)),
	}
	for i, rec := range t.Records {
		c.Records[i] = rec.Clone()
	}
	return c
}

func containsColumn(cols []string, col string) bool {
	for _, c := range cols {
		if c == col {
			return true
		}
	}
	return false
}
